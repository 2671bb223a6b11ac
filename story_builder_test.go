package zmachine

import (
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

// Layout of the version 3 image built by newStoryBuilder.
const (
	testGlobals    = 0x040
	testObjects    = 0x220
	testTextBuf    = 0x300
	testParseBuf   = 0x340
	testStatic     = 0x380
	testDictionary = 0x380
	testAbbrevs    = 0x3B0
	testAbbrevText = 0x480
	testCode       = 0x500
	testImageSize  = 0x900
)

var testWords = []string{"go", "lamp", "north", "take", "the"}

type testProp struct {
	num  uint8
	data []byte
}

// storyBuilder assembles a small but complete story image: four objects,
// a dictionary, two abbreviations and a code area.
type storyBuilder struct {
	buf      []byte
	propNext uint32
	codeNext uint32
}

func newStoryBuilder() *storyBuilder {
	b := &storyBuilder{buf: make([]byte, testImageSize), codeNext: testCode}
	b.buf[hdrVersion] = 3
	b.setWord(hdrRelease, 88)
	copy(b.buf[hdrSerial:], "840726")
	b.setWord(hdrHighMemory, testCode)
	b.setWord(hdrInitialPC, testCode)
	b.setWord(hdrDictionary, testDictionary)
	b.setWord(hdrObjectTable, testObjects)
	b.setWord(hdrGlobals, testGlobals)
	b.setWord(hdrStaticMemory, testStatic)
	b.setWord(hdrAbbreviations, testAbbrevs)
	b.setWord(hdrFileLength, testImageSize/2)

	b.writeObjects()
	b.writeDictionary(testWords...)
	b.writeAbbreviations()

	b.buf[testTextBuf] = 20
	b.buf[testParseBuf] = 4
	b.setGlobal(0, 1)
	return b
}

func (b *storyBuilder) setWord(address uint32, v uint16) {
	b.buf[address] = uint8(v >> 8)
	b.buf[address+1] = uint8(v)
}

func (b *storyBuilder) setGlobal(n int, v uint16) {
	b.setWord(testGlobals+uint32(n)*2, v)
}

func objectEntry(n int) uint32 {
	return testObjects + MAX_PROPERTY*2 + uint32(n-1)*OBJECT_ENTRY_SIZE
}

func (b *storyBuilder) writeObjects() {
	b.setWord(testObjects+(5-1)*2, 0x1234)
	b.propNext = objectEntry(5)

	b.object(1, 0, 0, 2, [4]byte{}, "room", testProp{18, []byte{0x01, 0x02}}, testProp{5, []byte{0x07}})
	b.object(2, 1, 3, 0, [4]byte{0, 0, 0, 0x20}, "lamp", testProp{17, []byte{0xBE, 0xEF}}, testProp{3, []byte{0x2A}})
	b.object(3, 1, 0, 4, [4]byte{0x80}, "box")
	b.object(4, 3, 0, 0, [4]byte{}, "")
}

// object writes entry n and appends its property table. Props must be in
// descending order.
func (b *storyBuilder) object(n int, parent, sibling, child uint8, attrs [4]byte, name string, props ...testProp) {
	entry := objectEntry(n)
	copy(b.buf[entry:], attrs[:])
	b.buf[entry+OBJECT_PARENT_INDEX] = parent
	b.buf[entry+OBJECT_SIBLING_INDEX] = sibling
	b.buf[entry+OBJECT_CHILD_INDEX] = child
	b.setWord(entry+OBJECT_PROPERTY_INDEX, uint16(b.propNext))

	p := b.propNext
	if name == "" {
		b.buf[p] = 0
		p++
	} else {
		encoded := zstring(name)
		b.buf[p] = uint8(len(encoded) / 2)
		p++
		p += uint32(copy(b.buf[p:], encoded))
	}
	for _, prop := range props {
		b.buf[p] = uint8(len(prop.data)-1)<<5 | prop.num
		p++
		p += uint32(copy(b.buf[p:], prop.data))
	}
	b.buf[p] = 0
	b.propNext = p + 1
}

// writeDictionary lays out ". , \"" as separators and 7-byte entries,
// sorted by encoded key.
func (b *storyBuilder) writeDictionary(words ...string) {
	codec := NewTextCodec(NewMemory(nil), 3, 0)
	keys := make([]uint32, 0, len(words))
	for _, w := range words {
		encoded, err := codec.Encode(w)
		if err != nil {
			panic(err)
		}
		keys = append(keys, GetUint32(encoded, 0))
	}
	slices.Sort(keys)

	p := uint32(testDictionary)
	b.buf[p] = 3
	copy(b.buf[p+1:], ".,\"")
	b.buf[p+4] = 7
	b.setWord(p+5, uint16(len(keys)))
	p += 7
	for _, k := range keys {
		b.buf[p], b.buf[p+1], b.buf[p+2], b.buf[p+3] = uint8(k>>24), uint8(k>>16), uint8(k>>8), uint8(k)
		p += 7
	}
}

// Abbreviation 0 is "the ", abbreviation 1 illegally uses abbreviation 0.
func (b *storyBuilder) writeAbbreviations() {
	first := zstring("the ")
	copy(b.buf[testAbbrevText:], first)
	b.setWord(testAbbrevs, testAbbrevText/2)

	second := uint32(testAbbrevText + 0x10)
	copy(b.buf[second:], packZChars([]uint8{6, 1, 0}))
	b.setWord(testAbbrevs+2, uint16(second/2))
}

// code appends instruction bytes to the code area and returns their address.
func (b *storyBuilder) code(bytes ...byte) uint32 {
	address := b.codeNext
	b.codeNext += uint32(copy(b.buf[address:], bytes))
	return address
}

// routine appends a routine header and body, returning its packed address.
func (b *storyBuilder) routine(locals []uint16, body ...byte) uint16 {
	if b.codeNext%2 != 0 {
		b.codeNext++
	}
	address := b.codeNext
	header := []byte{uint8(len(locals))}
	for _, l := range locals {
		header = append(header, uint8(l>>8), uint8(l))
	}
	b.code(header...)
	b.code(body...)
	return uint16(address / 2)
}

// entry sets the address of the first instruction.
func (b *storyBuilder) entry(address uint32) {
	b.setWord(hdrInitialPC, uint16(address))
}

// image returns the bytes with a correct checksum.
func (b *storyBuilder) image() []byte {
	b.setWord(hdrChecksum, 0)
	b.setWord(hdrChecksum, computeChecksum(b.buf, testImageSize))
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *storyBuilder) build(t *testing.T) *Story {
	t.Helper()
	story, err := NewStory(b.image())
	if err != nil {
		t.Fatalf("NewStory: %v", err)
	}
	return story
}

func (b *storyBuilder) interpreter(t *testing.T, opts ...Option) (*Interpreter, *BufferedOutput, *LineInput) {
	t.Helper()
	out := &BufferedOutput{}
	in := &LineInput{}
	return NewInterpreter(b.build(t), out, in, opts...), out, in
}

// packZChars packs 5-bit codes three to a word, padding with 5s and setting
// the end bit on the last word.
func packZChars(codes []uint8) []byte {
	codes = append([]uint8(nil), codes...)
	for len(codes) == 0 || len(codes)%3 != 0 {
		codes = append(codes, ZCHAR_PADDING)
	}
	out := make([]byte, 0, len(codes)/3*2)
	for i := 0; i < len(codes); i += 3 {
		w := uint16(codes[i])<<10 | uint16(codes[i+1])<<5 | uint16(codes[i+2])
		if i+3 == len(codes) {
			w |= 0x8000
		}
		out = append(out, uint8(w>>8), uint8(w))
	}
	return out
}

// zstring encodes version 3 text made of letters, spaces and A2 punctuation.
func zstring(s string) []byte {
	var codes []uint8
	for _, r := range s {
		switch {
		case r == ' ':
			codes = append(codes, 0)
		case r >= 'a' && r <= 'z':
			codes = append(codes, uint8(r-'a')+6)
		case r >= 'A' && r <= 'Z':
			codes = append(codes, 4, uint8(r-'A')+6)
		default:
			i := strings.IndexRune(alphabets[2], r)
			if i < 1 {
				panic("zstring: cannot encode " + string(r))
			}
			codes = append(codes, 5, uint8(i)+6)
		}
	}
	return packZChars(codes)
}

// dictEntry returns the address of word's entry in the built dictionary.
func dictEntry(t *testing.T, s *Story, word string) uint32 {
	t.Helper()
	address, err := s.Dictionary.Lookup(word)
	if err != nil || address == DICT_NOT_FOUND {
		t.Fatalf("%q not in dictionary (err %v)", word, err)
	}
	return address
}
