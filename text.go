package zmachine

import (
	"strings"
	"unicode"
)

type textState int

const (
	stateDefault textState = iota
	stateWaitingForAbbreviation
	stateGettingWideChar1
	stateGettingWideChar2
)

func (s textState) String() string {
	switch s {
	case stateDefault:
		return "DEFAULT"
	case stateWaitingForAbbreviation:
		return "WAITING_FOR_ABBREVIATION"
	case stateGettingWideChar1:
		return "GETTING_WIDE_CHAR_1"
	case stateGettingWideChar2:
		return "GETTING_WIDE_CHAR_2"
	}
	return "UNKNOWN"
}

// abbreviationTable resolves abbreviation indexes to string addresses.
type abbreviationTable struct {
	mem     *Memory
	address uint32
}

// Entries are word addresses.
func (t *abbreviationTable) lookup(index int) (uint32, error) {
	w, err := t.mem.Word(t.address + uint32(index)*2)
	if err != nil {
		return 0, err
	}
	return PackedAddress(uint32(w)), nil
}

// TextCodec decodes Z-character strings from memory and encodes dictionary
// words. A codec built without an abbreviation table rejects abbreviation
// codes, which is how expansion is limited to one level.
type TextCodec struct {
	mem           *Memory
	version       uint8
	abbreviations *abbreviationTable
}

// NewTextCodec returns a codec that expands abbreviations from the table at
// abbrevAddress.
func NewTextCodec(mem *Memory, version uint8, abbrevAddress uint32) *TextCodec {
	return &TextCodec{
		mem:           mem,
		version:       version,
		abbreviations: &abbreviationTable{mem: mem, address: abbrevAddress},
	}
}

// withoutAbbreviations is the codec used to expand an abbreviation.
func (c *TextCodec) withoutAbbreviations() *TextCodec {
	return &TextCodec{mem: c.mem, version: c.version}
}

func (c *TextCodec) table() []string {
	if c.version == 1 {
		return alphabetsV1
	}
	return alphabets
}

// Decode reads the string at address. Returns the text and the address just
// after the last word of the string.
func (c *TextCodec) Decode(address uint32) (string, uint32, error) {
	var zchars []uint8
	done := false
	i := address
	for !done {

		//--first byte-------   --second byte---
		//7    6 5 4 3 2  1 0   7 6 5  4 3 2 1 0
		//bit  --first--  --second---  --third--

		w16, err := c.mem.Word(i)
		if err != nil {
			return "", 0, err
		}
		done = (w16 & 0x8000) != 0
		zchars = append(zchars, uint8((w16>>10)&0x1F), uint8((w16>>5)&0x1F), uint8(w16&0x1F))
		i += 2
	}
	s, err := c.DecodeZChars(zchars)
	return s, i, err
}

// DecodeBytes decodes packed text held outside story memory. Words after
// the one carrying the end bit are ignored.
func (c *TextCodec) DecodeBytes(b []byte) (string, error) {
	var zchars []uint8
	for i := 0; i+1 < len(b); i += 2 {
		w16 := GetUint16(b, uint32(i))
		zchars = append(zchars, uint8((w16>>10)&0x1F), uint8((w16>>5)&0x1F), uint8(w16&0x1F))
		if w16&0x8000 != 0 {
			break
		}
	}
	return c.DecodeZChars(zchars)
}

// DecodeZChars runs the decoding state machine over unpacked Z-characters.
func (c *TextCodec) DecodeZChars(zchars []uint8) (string, error) {
	d := zdecoder{codec: c, alphabets: c.table()}
	for _, zc := range zchars {
		if err := d.feed(zc); err != nil {
			return "", err
		}
	}
	return d.out.String(), nil
}

type zdecoder struct {
	codec     *TextCodec
	alphabets []string
	state     textState
	alphabet  int
	locked    int
	trigger   uint8
	wideHigh  uint16
	out       strings.Builder
}

func (d *zdecoder) feed(zc uint8) error {
	switch d.state {
	case stateWaitingForAbbreviation:
		d.state = stateDefault
		// "If z is the first Z-character (1, 2 or 3) and x the subsequent one,
		// then the interpreter must look up entry 32(z-1)+x in the abbreviations table"
		return d.expand(32*int(d.trigger-1) + int(zc))
	case stateGettingWideChar1:
		d.wideHigh = uint16(zc)
		d.state = stateGettingWideChar2
		return nil
	case stateGettingWideChar2:
		d.state = stateDefault
		s, err := ZSCIIString(d.wideHigh<<5 | uint16(zc))
		if err != nil {
			return err
		}
		d.out.WriteString(s)
		return nil
	}

	alphabet := d.alphabet
	// One-shot shifts last a single character.
	d.alphabet = d.locked

	if zc == 0 {
		d.out.WriteByte(' ')
		return nil
	}
	if zc < 6 {
		return d.special(zc, alphabet)
	}

	// Z-character 6 from A2 means that the two subsequent Z-characters specify a ten-bit ZSCII character code:
	// the next Z-character gives the top 5 bits and the one after the bottom 5.
	if alphabet == 2 && zc == 6 {
		d.state = stateGettingWideChar1
		return nil
	}

	// Alphabet tables are indexed starting at 6
	d.out.WriteByte(d.alphabets[alphabet][zc-6])
	return nil
}

// special handles codes 1-5, which differ between versions.
func (d *zdecoder) special(zc uint8, alphabet int) error {
	switch d.codec.version {
	case 1, 2:
		switch {
		case zc == 1 && d.codec.version == 1:
			d.out.WriteByte('\n')
		case zc == 1:
			return d.startAbbreviation(zc)
		case zc == 2 || zc == 3:
			d.alphabet = shiftAlphabet(d.locked, zc == 2)
		default:
			d.locked = shiftAlphabet(d.locked, zc == 4)
			d.alphabet = d.locked
		}
	default:
		if zc <= 3 {
			return d.startAbbreviation(zc)
		}
		d.alphabet = shiftAlphabet(d.locked, zc == 4)
	}
	return nil
}

func shiftAlphabet(a int, up bool) int {
	if up {
		return (a + 1) % 3
	}
	return (a + 2) % 3
}

func (d *zdecoder) startAbbreviation(zc uint8) error {
	if d.codec.abbreviations == nil {
		return textErrorf("abbreviation code %d inside an abbreviation", zc)
	}
	d.trigger = zc
	d.state = stateWaitingForAbbreviation
	return nil
}

func (d *zdecoder) expand(index int) error {
	address, err := d.codec.abbreviations.lookup(index)
	if err != nil {
		return err
	}
	s, _, err := d.codec.withoutAbbreviations().Decode(address)
	if err != nil {
		return err
	}
	d.out.WriteString(s)
	d.alphabet = d.locked
	return nil
}

// ZSCIIString maps an output ZSCII code to text.
func ZSCIIString(ch uint16) (string, error) {
	switch {
	case ch == 0:
		return "", nil
	case ch == 13:
		return "\n", nil
	case ch >= 32 && ch <= 126: // ASCII
		return string(rune(ch)), nil
	case ch >= 155 && int(ch) < 155+len(extraCharacters):
		return extraCharacters[ch-155], nil
	}
	return "", textErrorf("undefined ZSCII character %d", ch)
}

// zsciiCode is the inverse of ZSCIIString for a single input character.
func zsciiCode(r rune) (uint16, bool) {
	if r >= 32 && r <= 126 {
		return uint16(r), true
	}
	for i, s := range extraCharacters {
		if []rune(s)[0] == r {
			return uint16(155 + i), true
		}
	}
	return 0, false
}

// Encode packs text the way dictionary words are stored: lowercased,
// six Z-characters padded with 5s, two words with the end bit on the second.
func (c *TextCodec) Encode(txt string) ([]byte, error) {
	tbl := c.table()
	// A2 one-shot shift from A0.
	shiftA2 := uint8(5)
	if c.version < 3 {
		shiftA2 = 3
	}

	encodedChars := make([]uint8, 0, DICT_WORD_ZCHARS+3)
	for _, r := range strings.ToLower(txt) {
		if len(encodedChars) >= DICT_WORD_ZCHARS {
			break
		}
		if r == ' ' {
			encodedChars = append(encodedChars, 0)
			continue
		}
		if r < unicode.MaxASCII {
			if ai := strings.IndexRune(tbl[0], r); ai >= 0 {
				encodedChars = append(encodedChars, uint8(ai+6))
				continue
			}
			// First A2 slot stands for the escape code.
			if ai := strings.IndexRune(tbl[2][1:], r); ai >= 0 {
				encodedChars = append(encodedChars, shiftA2, uint8(ai+7))
				continue
			}
		}
		// 10-bit ZSCII
		code, ok := zsciiCode(r)
		if !ok {
			return nil, textErrorf("cannot encode %q", r)
		}
		encodedChars = append(encodedChars, shiftA2, 6, uint8(code>>5), uint8(code&0x1F))
	}
	for len(encodedChars) < DICT_WORD_ZCHARS {
		encodedChars = append(encodedChars, ZCHAR_PADDING)
	}

	out := make([]byte, DICT_WORD_BYTES)
	for i := 0; i < 2; i++ {
		w := (uint16(encodedChars[i*3+0]) << 10) | (uint16(encodedChars[i*3+1]) << 5) |
			uint16(encodedChars[i*3+2])
		if i == 1 {
			w |= 0x8000
		}
		out[i*2] = uint8(w >> 8)
		out[i*2+1] = uint8(w & 0xFF)
	}
	return out, nil
}
