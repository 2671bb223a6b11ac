package zmachine

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Token is one word of player input and its offset in the input line.
type Token struct {
	Word  string
	Start int
}

// Dictionary is the parsed dictionary table. The table lives in static
// memory so the encoded keys are read once at load.
type Dictionary struct {
	address        uint32
	Separators     []byte
	EntryLength    uint8
	entriesAddress uint32
	keys           []uint32
	codec          *TextCodec
}

func NewDictionary(mem *Memory, address uint32, codec *TextCodec) (*Dictionary, error) {
	d := &Dictionary{address: address, codec: codec}

	numSeparators, err := mem.Byte(address)
	if err != nil {
		return nil, err
	}
	p := address + 1
	for i := 0; i < int(numSeparators); i++ {
		b, err := mem.Byte(p)
		if err != nil {
			return nil, err
		}
		d.Separators = append(d.Separators, b)
		p++
	}
	if d.EntryLength, err = mem.Byte(p); err != nil {
		return nil, err
	}
	if d.EntryLength < DICT_WORD_BYTES {
		return nil, &StoryFileError{Msg: "dictionary entries shorter than an encoded word"}
	}
	numEntries, err := mem.Word(p + 1)
	if err != nil {
		return nil, err
	}
	d.entriesAddress = p + 3

	d.keys = make([]uint32, 0, numEntries)
	for i := uint32(0); i < uint32(numEntries); i++ {
		entry := d.entriesAddress + i*uint32(d.EntryLength)
		if entry+DICT_WORD_BYTES > mem.Len() {
			return nil, &StoryFileError{Msg: "dictionary runs past end of story"}
		}
		d.keys = append(d.keys, GetUint32(mem.buf, entry))
	}
	return d, nil
}

func (d *Dictionary) Len() int {
	return len(d.keys)
}

func (d *Dictionary) isSeparator(ch byte) bool {
	return slices.Contains(d.Separators, ch)
}

// Split breaks a line into words. Separators are words of their own,
// spaces only end words.
func (d *Dictionary) Split(text string) []Token {
	var tokens []Token
	var current strings.Builder
	start := -1
	flush := func() {
		if start >= 0 {
			tokens = append(tokens, Token{Word: current.String(), Start: start})
			current.Reset()
			start = -1
		}
	}
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == ' ':
			flush()
		case d.isSeparator(ch):
			flush()
			tokens = append(tokens, Token{Word: string(ch), Start: i})
		default:
			if start < 0 {
				start = i
			}
			current.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// Lookup returns the address of the entry for word, DICT_NOT_FOUND if absent.
func (d *Dictionary) Lookup(word string) (uint32, error) {
	encoded, err := d.codec.Encode(word)
	if err != nil {
		return DICT_NOT_FOUND, err
	}
	key := GetUint32(encoded, 0)

	// Dictionary entries are sorted, so we can use binary search
	if i, found := slices.BinarySearch(d.keys, key); found {
		return d.entriesAddress + uint32(i)*uint32(d.EntryLength), nil
	}
	// Tolerate unsorted tables.
	if i := slices.Index(d.keys, key); i >= 0 {
		return d.entriesAddress + uint32(i)*uint32(d.EntryLength), nil
	}
	return DICT_NOT_FOUND, nil
}
