package zmachine

const (
	OPERAND_LARGE    = 0x0
	OPERAND_SMALL    = 0x1
	OPERAND_VARIABLE = 0x2
	OPERAND_OMITTED  = 0x3

	FORM_LONG     = 0x0
	FORM_SHORT    = 0x1
	FORM_VARIABLE = 0x2

	// Evaluation stack depth per routine, and routine nesting depth.
	MAX_STACK       = 1024
	MAX_CALL_DEPTH  = 1024
	MAX_TABLE_DEPTH = 16
	MAX_LOCALS      = 15
	MAX_OBJECT      = 255
	MAX_ATTRIBUTE   = 31
	MAX_PROPERTY    = 31
	HEADER_SIZE     = 0x40
	EXTENDED_OPCODE = 0xBE

	OBJECT_ENTRY_SIZE     = 9
	OBJECT_PARENT_INDEX   = 4
	OBJECT_SIBLING_INDEX  = 5
	OBJECT_CHILD_INDEX    = 6
	OBJECT_PROPERTY_INDEX = 7
	NULL_OBJECT_INDEX     = 0

	DICT_NOT_FOUND = 0

	// Encoded dictionary words: 4 bytes, 6 Z-characters.
	DICT_WORD_BYTES  = 4
	DICT_WORD_ZCHARS = 6
	ZCHAR_PADDING    = 5

	MIN_VERSION = 1
	MAX_VERSION = 3
)

// Header offsets.
const (
	hdrVersion            = 0x00
	hdrFlags1             = 0x01
	hdrRelease            = 0x02
	hdrHighMemory         = 0x04
	hdrInitialPC          = 0x06
	hdrDictionary         = 0x08
	hdrObjectTable        = 0x0A
	hdrGlobals            = 0x0C
	hdrStaticMemory       = 0x0E
	hdrFlags2             = 0x10
	hdrSerial             = 0x12
	hdrAbbreviations      = 0x18
	hdrFileLength         = 0x1A
	hdrChecksum           = 0x1C
	hdrInterpreterNumber  = 0x1E
	hdrInterpreterVersion = 0x1F
	hdrRevision           = 0x32
)

// Flags 1 bits for versions 1-3.
const (
	FLAG1_TIME_GAME              = 1
	FLAG1_STATUS_LINE_UNAVAIL    = 4
	FLAG1_SCREEN_SPLIT_AVAILABLE = 5
	FLAG1_VARIABLE_PITCH_DEFAULT = 6
)

// Flags 2 bits (low byte of the word at 0x10).
const (
	FLAG2_TRANSCRIPT    = 0
	FLAG2_FIXED_PITCH   = 1
	FLAG2_REDRAW_NEEDED = 2
)

// Bits of flags 1 and of the low byte of flags 2 that the running program
// may change.
const (
	flags1WritableMask = 1<<FLAG1_STATUS_LINE_UNAVAIL | 1<<FLAG1_SCREEN_SPLIT_AVAILABLE | 1<<FLAG1_VARIABLE_PITCH_DEFAULT
	flags2WritableMask = 1<<FLAG2_TRANSCRIPT | 1<<FLAG2_FIXED_PITCH
)

var alphabets = []string{"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	" \n0123456789.,!?_#'\"/\\-:()"}

// Version 1 has no newline in A2; '<' takes its place further along.
var alphabetsV1 = []string{alphabets[0],
	alphabets[1],
	" 0123456789.,!?_#'\"/\\<-:()"}

// Default extra characters, ZSCII 155 onwards.
var extraCharacters = []string{
	"ä", "ö", "ü", "Ä", "Ö", "Ü", "ß", "»", "«", "ë", "ï", "ÿ", "Ë", "Ï", "á",
	"é", "í", "ó", "ú", "ý", "Á", "É", "Í", "Ó", "Ú", "Ý", "à", "è", "ì", "ò",
	"ù", "À", "È", "Ì", "Ò", "Ù", "â", "ê", "î", "ô", "û", "Â", "Ê", "Î", "Ô",
	"Û", "å", "Å", "ø", "Ø", "ã", "ñ", "õ", "Ã", "Ñ", "Õ", "æ", "Æ", "ç", "Ç",
	"þ", "ð", "Þ", "Ð", "£", "œ", "Œ", "¡", "¿",
}

// " Given a packed address P, the formula to obtain the corresponding byte address B is:
//  2P           Versions 1, 2 and 3"
func PackedAddress(a uint32) uint32 {
	return a * 2
}

func GetUint16(buf []byte, offset uint32) uint16 {
	return (uint16(buf[offset]) << 8) | (uint16)(buf[offset+1])
}

func GetUint32(buf []byte, offset uint32) uint32 {
	return (uint32(buf[offset]) << 24) | (uint32(buf[offset+1]) << 16) | (uint32(buf[offset+2]) << 8) | uint32(buf[offset+3])
}
