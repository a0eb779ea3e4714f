// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package corefmt 提供同位素組態向量的位元組編碼，以及文字傳輸用的
// base64/hex 包裝。
//
// 組態向量（conf）是一組非負小整數（每個同位素的原子數）。兩種編碼：
//   - ConfKey：定長 little-endian uint32 打包，當 map key 用（visited set）。
//   - EncodeConf / DecodeConf：uvarint 打包，給 DTO 的緊湊文字傳輸用。
package corefmt

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"

	"github.com/zintix-labs/isolab/errs"
)

// ConfKey 把組態向量打包成可作為 map key 的字串。
//
// buf 為呼叫端重用的暫存區（避免熱路徑配置）；長度不足會重配。
// 回傳的 string 複製了底層位元組，buf 可立即重用。
func ConfKey(conf []int, buf []byte) (string, []byte) {
	need := 4 * len(conf)
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	for i, c := range conf {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(c))
	}
	return string(buf), buf
}

// ConfKeyIdx 與 ConfKey 相同，但輸入是 driver 的維度索引向量（D-tuple）。
func ConfKeyIdx(idx []int32, buf []byte) (string, []byte) {
	need := 4 * len(idx)
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	for i, c := range idx {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(c))
	}
	return string(buf), buf
}

// EncodeConf 把組態向量打包成 uvarint 序列。
func EncodeConf(conf []int32) []byte {
	out := make([]byte, 0, 2*len(conf))
	var hdr [binary.MaxVarintLen64]byte
	for _, c := range conf {
		n := binary.PutUvarint(hdr[:], uint64(uint32(c)))
		out = append(out, hdr[:n]...)
	}
	return out
}

// DecodeConf 解回 EncodeConf 打包的向量。size 為預期的元素個數。
func DecodeConf(raw []byte, size int) ([]int32, error) {
	out := make([]int32, 0, size)
	for len(raw) > 0 {
		v, n := binary.Uvarint(raw)
		if n <= 0 {
			return nil, errs.NewWarn("decode conf failed: invalid uvarint")
		}
		out = append(out, int32(v))
		raw = raw[n:]
	}
	if len(out) != size {
		return nil, errs.Warnf("decode conf failed: got %d counts, want %d", len(out), size)
	}
	return out, nil
}

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64 failed")
	}
	return b, err
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, err
}
