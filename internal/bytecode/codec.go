package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ============================================================================
// 单元序列化
// ============================================================================
//
// 单元以 canonical CBOR 编码：同一个单元总是得到相同的字节，
// 指纹（BLAKE2b-256）和 ID（指纹的 UUID v5）因此也是确定的。
//
// ============================================================================

// ArtifactExtension 单元产物文件后缀
const ArtifactExtension = ".lyeu"

// unitNamespace 单元 ID 的 UUID 命名空间
var unitNamespace = uuid.MustParse("6c79652d-756e-4974-8000-6c7965626300")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalUnit 序列化单元
func MarshalUnit(u *Unit) ([]byte, error) {
	return cborEncMode.Marshal(u)
}

// UnmarshalUnit 反序列化单元并重新校验
//
// 产物可能来自磁盘或缓存，加载前重新跑一遍校验。
func UnmarshalUnit(data []byte) (*Unit, error) {
	var u Unit
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal unit: %w", err)
	}
	if u.Pool == nil {
		u.Pool = NewPool()
	}
	u.Pool.reindex()

	if u.SlotCount < 0 || u.SlotCount > MaxFrameSlots {
		return nil, fmt.Errorf("bytecode: unmarshal unit %s: slot count %d outside [0, %d]",
			u.Name, u.SlotCount, MaxFrameSlots)
	}
	maxStack, err := Verify(u.Code, u.Pool, u.SlotCount)
	if err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal unit %s: %w", u.Name, err)
	}
	if maxStack != u.MaxStack {
		return nil, fmt.Errorf("bytecode: unmarshal unit %s: recorded max stack %d, computed %d",
			u.Name, u.MaxStack, maxStack)
	}
	return &u, nil
}

// Fingerprint 返回单元 canonical 编码的 BLAKE2b-256 摘要
func Fingerprint(u *Unit) ([32]byte, error) {
	data, err := MarshalUnit(u)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// ID 返回由指纹派生的单元 ID
func ID(u *Unit) (uuid.UUID, error) {
	fp, err := Fingerprint(u)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(unitNamespace, fp[:]), nil
}
