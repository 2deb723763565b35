// Package ifcguid produces IFC GlobalIds: 128-bit GUIDs written as 22
// characters of the IFC base-64 alphabet.
package ifcguid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/ifcpset/internal/model"
)

// Length is the length of a compressed GlobalId.
const Length = 22

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// Namespace seeds the name-based GUIDs derived by this package.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ifcpset:globalid"))

// ErrInvalid is returned by Expand for malformed ids.
var ErrInvalid = errors.New("invalid IFC GlobalId")

// Compress encodes a GUID as a GlobalId. The 128-bit value is written in
// base 64, most significant digit first, so the first character is 0-3.
func Compress(id uuid.UUID) string {
	var out [Length]byte
	out[0] = alphabet[id[0]>>6]
	out[1] = alphabet[id[0]&0x3f]
	for i := 0; i < 5; i++ {
		n := uint32(id[1+3*i])<<16 | uint32(id[2+3*i])<<8 | uint32(id[3+3*i])
		for j := 3; j >= 0; j-- {
			out[2+4*i+j] = alphabet[n&0x3f]
			n >>= 6
		}
	}
	return string(out[:])
}

// Expand decodes a GlobalId back into a GUID.
func Expand(s string) (uuid.UUID, error) {
	var id uuid.UUID
	if !IsValid(s) {
		return id, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	digit := func(i int) uint32 { return uint32(strings.IndexByte(alphabet, s[i])) }

	id[0] = byte(digit(0)<<6 | digit(1))
	for i := 0; i < 5; i++ {
		var n uint32
		for j := 0; j < 4; j++ {
			n = n<<6 | digit(2+4*i+j)
		}
		id[1+3*i] = byte(n >> 16)
		id[2+3*i] = byte(n >> 8)
		id[3+3*i] = byte(n)
	}
	return id, nil
}

// IsValid reports whether s is a well-formed GlobalId.
func IsValid(s string) bool {
	if len(s) != Length || s[0] < '0' || s[0] > '3' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// New returns a random GlobalId.
func New() string {
	return Compress(uuid.New())
}

// ForSet derives the GlobalId of a property set from its owner, its name
// and how many sets of that name the owner already carries.
func ForSet(owner, setName string, occurrence int) string {
	key := owner + "\x00" + setName + "\x00" + strconv.Itoa(occurrence)
	return Compress(uuid.NewSHA1(Namespace, []byte(key)))
}

// SubElement derives the GlobalId of a numbered sub-element of owner.
// The same owner and index always give the same id.
func SubElement(owner string, index int) string {
	key := owner + "\x00sub\x00" + strconv.Itoa(index)
	return Compress(uuid.NewSHA1(Namespace, []byte(key)))
}

// Slot identifies one set emitted for one entity.
type Slot struct {
	SetName string
	// SubElementIndex is the set's reserved sub-element index, 0 if none.
	SubElementIndex int
	// Occurrence counts earlier sets of the same name on the same entity.
	Occurrence int
}

// Generator derives set GlobalIds deterministically from the target.
// Sets with a reserved sub-element index use SubElement on their first
// occurrence; everything else uses ForSet.
type Generator struct{}

// SetGUID returns the GlobalId for a set attached to target.
func (Generator) SetGUID(target model.Element, slot Slot) string {
	owner := target.GUID()
	if owner == "" {
		owner = target.ID()
	}
	if slot.SubElementIndex > 0 && slot.Occurrence == 0 {
		return SubElement(owner, slot.SubElementIndex)
	}
	return ForSet(owner, slot.SetName, slot.Occurrence)
}
