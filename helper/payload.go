package helper

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ParsePayload reads "0x6131" as hex, "0b0110000101100001" as bits, anything else as plain text
func ParsePayload(text string) ([]byte, error) {
	if strings.HasPrefix(text, "0x") {
		text = strings.ReplaceAll(text, " ", "")
		return hex.DecodeString(text[2:])
	} else if strings.HasPrefix(text, "0b") {
		text = strings.ReplaceAll(text, " ", "")
		return BitsString2Bytes(text[2:])
	}
	return []byte(text), nil
}

func BitsString2Bytes(bitsStr string) ([]byte, error) {
	bits := []byte(bitsStr)
	if len(bits)%8 != 0 {
		return nil, errors.New("invalid binary string")
	}
	bs := make([]byte, len(bits)/8)
	for i := 0; i < len(bits); i++ {
		byteIndex := i / 8
		switch bits[i] {
		case '1':
			bs[byteIndex] = bs[byteIndex]<<1 | 1
		case '0':
			bs[byteIndex] = bs[byteIndex] << 1
		default:
			return nil, errors.New("invalid binary string")
		}
	}
	return bs, nil
}
