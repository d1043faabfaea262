package program

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	imageMagic   = "VBC1"
	imageVersion = 1
)

var ErrBadImage = errors.New("not a program image")

type image struct {
	Magic   string  `cbor:"1,keyasint"`
	Version uint    `cbor:"2,keyasint"`
	Program Program `cbor:"3,keyasint"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Encode serializes a program into a deterministic CBOR image.
func Encode(p *Program) ([]byte, error) {
	return encMode.Marshal(image{Magic: imageMagic, Version: imageVersion, Program: *p})
}

// Decode reads a program image produced by Encode and validates its
// symbol table.
func Decode(data []byte) (*Program, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadImage, err)
	}
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadImage, img.Magic)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadImage, img.Version)
	}
	for pc, ins := range img.Program.Instructions {
		if !ins.Op.Valid() {
			return nil, fmt.Errorf("%w: unknown opcode %d at %d", ErrBadImage, ins.Op, pc)
		}
	}
	if err := img.Program.Validate(); err != nil {
		return nil, err
	}
	return &img.Program, nil
}
