package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	domainName    = "ClawArena"
	domainVersion = "1"

	domainTypeString = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	structTypeString = "Finalize(address arena,bytes32 winnersHash,bytes32 amountsHash,uint256 nonce)"
)

var (
	domainTypeHash = crypto.Keccak256([]byte(domainTypeString))
	structTypeHash = crypto.Keccak256([]byte(structTypeString))
	nameHash       = crypto.Keccak256([]byte(domainName))
	versionHash    = crypto.Keccak256([]byte(domainVersion))
)

// leftPad32 returns b left-padded with zeros to 32 bytes, the abi.encode
// convention for fixed-width scalar fields.
func leftPad32(b []byte) []byte {
	out := make([]byte, 32)
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}

func addressWord(addr common.Address) []byte {
	return leftPad32(addr.Bytes())
}

func uint256Word(v *big.Int) []byte {
	return leftPad32(v.Bytes())
}

// domainSeparator computes H(H(domain_type_string), H(name), H(version), chainId, verifyingContract)
// exactly as abi.encode would lay out an EIP-712 domain struct.
func domainSeparator(chainID *big.Int, arena common.Address) []byte {
	buf := make([]byte, 0, 32*5)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, nameHash...)
	buf = append(buf, versionHash...)
	buf = append(buf, uint256Word(chainID)...)
	buf = append(buf, addressWord(arena)...)
	return crypto.Keccak256(buf)
}

// winnersHash hashes the packed concatenation of winner addresses in rank
// order (abi.encodePacked, not padded).
func winnersHash(winners []common.Address) []byte {
	buf := make([]byte, 0, len(winners)*20)
	for _, w := range winners {
		buf = append(buf, w.Bytes()...)
	}
	return crypto.Keccak256(buf)
}

// amountsHash hashes the packed concatenation of amounts, each encoded as a
// 32-byte big-endian unsigned integer, in the same order as winners.
func amountsHash(amounts []*uint256.Int) []byte {
	buf := make([]byte, 0, len(amounts)*32)
	for _, a := range amounts {
		b := a.Bytes32()
		buf = append(buf, b[:]...)
	}
	return crypto.Keccak256(buf)
}

// structHash computes H(H(struct_type_string), arena, winnersHash, amountsHash, nonce).
func structHash(arena common.Address, winners []common.Address, amounts []*uint256.Int, nonce uint64) []byte {
	buf := make([]byte, 0, 32*5)
	buf = append(buf, structTypeHash...)
	buf = append(buf, addressWord(arena)...)
	buf = append(buf, winnersHash(winners)...)
	buf = append(buf, amountsHash(amounts)...)
	buf = append(buf, uint256Word(new(big.Int).SetUint64(nonce))...)
	return crypto.Keccak256(buf)
}

// Digest computes the canonical 32-byte digest an operator key signs to
// authorize a finalize: H(0x19 || 0x01 || domain_separator || struct_hash).
func Digest(chainID *big.Int, arena common.Address, winners []common.Address, amounts []*uint256.Int, nonce uint64) [32]byte {
	ds := domainSeparator(chainID, arena)
	sh := structHash(arena, winners, amounts, nonce)

	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, ds...)
	buf = append(buf, sh...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}
