package zmachine

import "fmt"

// ObjectTree is the object table stored in place in dynamic memory.
// Objects are numbered from 1; 0 is the null object and never has an entry.
// Reads go straight to memory; every change goes through the program's
// protected view, so a table reaching into static memory stays read-only.
type ObjectTree struct {
	mem     *Memory
	dynamic *ProtectedMemory
	address uint32
	count   uint16
}

func NewObjectTree(dynamic *ProtectedMemory, address uint32) (*ObjectTree, error) {
	t := &ObjectTree{mem: dynamic.mem, dynamic: dynamic, address: address}
	if err := t.countObjects(); err != nil {
		return nil, err
	}
	return t, nil
}

// countObjects sizes the arena. The table has no count; the first
// object's property table conventionally follows the last entry.
func (t *ObjectTree) countObjects() error {
	first := t.address + MAX_PROPERTY*2
	if first+OBJECT_ENTRY_SIZE > t.mem.Len() {
		t.count = 0
		return nil
	}
	props, err := t.mem.Word(first + OBJECT_PROPERTY_INDEX)
	if err != nil {
		return err
	}
	n := uint32(MAX_OBJECT)
	if uint32(props) > first {
		n = (uint32(props) - first) / OBJECT_ENTRY_SIZE
	}
	if n > MAX_OBJECT {
		n = MAX_OBJECT
	}
	for n > 0 && first+n*OBJECT_ENTRY_SIZE > t.mem.Len() {
		n--
	}
	t.count = uint16(n)
	return nil
}

func (t *ObjectTree) Count() uint16 {
	return t.count
}

func (t *ObjectTree) entryAddress(objectIndex uint16) (uint32, error) {
	if objectIndex == NULL_OBJECT_INDEX || objectIndex > t.count {
		return 0, instructionErrorf("invalid object %d (table holds %d)", objectIndex, t.count)
	}
	// Convert from 1-based (0 = NULL = no object) to 0-based, skipping default props
	return t.address + MAX_PROPERTY*2 + uint32(objectIndex-1)*OBJECT_ENTRY_SIZE, nil
}

func (t *ObjectTree) link(objectIndex uint16, field uint32) (uint16, error) {
	if objectIndex == NULL_OBJECT_INDEX {
		return NULL_OBJECT_INDEX, nil
	}
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return 0, err
	}
	return uint16(t.mem.buf[entry+field]), nil
}

func (t *ObjectTree) setLink(objectIndex uint16, field uint32, v uint16) error {
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return err
	}
	return t.dynamic.SetByte(entry+field, uint8(v))
}

func (t *ObjectTree) Parent(objectIndex uint16) (uint16, error) {
	return t.link(objectIndex, OBJECT_PARENT_INDEX)
}

func (t *ObjectTree) Sibling(objectIndex uint16) (uint16, error) {
	return t.link(objectIndex, OBJECT_SIBLING_INDEX)
}

func (t *ObjectTree) Child(objectIndex uint16) (uint16, error) {
	return t.link(objectIndex, OBJECT_CHILD_INDEX)
}

// TestAttribute reports attribute n. Bit 0 is the top bit of the first
// attribute byte. The null object has no attributes set.
func (t *ObjectTree) TestAttribute(objectIndex uint16, attribute uint16) (bool, error) {
	if attribute > MAX_ATTRIBUTE {
		return false, instructionErrorf("attribute %d out of bounds", attribute)
	}
	if objectIndex == NULL_OBJECT_INDEX {
		return false, nil
	}
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return false, err
	}
	attribs := GetUint32(t.mem.buf, entry)
	// 0: top bit
	// 31: bottom bit
	mask := uint32(1) << (31 - attribute)
	return (attribs & mask) != 0, nil
}

func (t *ObjectTree) SetAttribute(objectIndex uint16, attribute uint16, on bool) error {
	if attribute > MAX_ATTRIBUTE {
		return instructionErrorf("attribute %d out of bounds", attribute)
	}
	if objectIndex == NULL_OBJECT_INDEX {
		return nil
	}
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return err
	}
	address := entry + uint32(attribute>>3)
	shift := 7 - (attribute & 0x7)
	b := t.mem.buf[address]
	if on {
		b |= 1 << shift
	} else {
		b &^= 1 << shift
	}
	return t.dynamic.SetByte(address, b)
}

// Remove unlinks an object from its parent. The rest of the sibling chain
// keeps its order. Removing the null object does nothing.
func (t *ObjectTree) Remove(objectIndex uint16) error {
	if objectIndex == NULL_OBJECT_INDEX {
		return nil
	}
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return err
	}
	currentParentIndex := uint16(t.mem.buf[entry+OBJECT_PARENT_INDEX])
	if currentParentIndex == NULL_OBJECT_INDEX {
		return nil
	}
	parentEntry, err := t.entryAddress(currentParentIndex)
	if err != nil {
		return err
	}
	sibling := t.mem.buf[entry+OBJECT_SIBLING_INDEX]

	// If we're the first child -> move to sibling
	if uint16(t.mem.buf[parentEntry+OBJECT_CHILD_INDEX]) == objectIndex {
		if err := t.dynamic.SetByte(parentEntry+OBJECT_CHILD_INDEX, sibling); err != nil {
			return err
		}
	} else {
		prevChild := uint16(t.mem.buf[parentEntry+OBJECT_CHILD_INDEX])
		for steps := 0; ; steps++ {
			if prevChild == NULL_OBJECT_INDEX || steps > int(t.count) {
				return instructionErrorf("object %d not found among children of %d", objectIndex, currentParentIndex)
			}
			next, err := t.Sibling(prevChild)
			if err != nil {
				return err
			}
			if next == objectIndex {
				break
			}
			prevChild = next
		}
		if err := t.setLink(prevChild, OBJECT_SIBLING_INDEX, uint16(sibling)); err != nil {
			return err
		}
	}
	if err := t.dynamic.SetByte(entry+OBJECT_PARENT_INDEX, NULL_OBJECT_INDEX); err != nil {
		return err
	}
	return t.dynamic.SetByte(entry+OBJECT_SIBLING_INDEX, NULL_OBJECT_INDEX)
}

// Insert makes objectIndex the first child of newParentIndex.
func (t *ObjectTree) Insert(objectIndex uint16, newParentIndex uint16) error {
	if objectIndex == NULL_OBJECT_INDEX {
		return nil
	}
	if newParentIndex == NULL_OBJECT_INDEX {
		return t.Remove(objectIndex)
	}
	if objectIndex == newParentIndex {
		return instructionErrorf("cannot insert object %d into itself", objectIndex)
	}
	if err := t.Remove(objectIndex); err != nil {
		return err
	}
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return err
	}
	parentEntry, err := t.entryAddress(newParentIndex)
	if err != nil {
		return err
	}
	if err := t.dynamic.SetByte(entry+OBJECT_SIBLING_INDEX, t.mem.buf[parentEntry+OBJECT_CHILD_INDEX]); err != nil {
		return err
	}
	if err := t.dynamic.SetByte(parentEntry+OBJECT_CHILD_INDEX, uint8(objectIndex)); err != nil {
		return err
	}
	return t.dynamic.SetByte(entry+OBJECT_PARENT_INDEX, uint8(newParentIndex))
}

// propertyTable returns the address of the object's property table header
// (short name length byte).
func (t *ObjectTree) propertyTable(objectIndex uint16) (uint32, error) {
	entry, err := t.entryAddress(objectIndex)
	if err != nil {
		return 0, err
	}
	return uint32(GetUint16(t.mem.buf, entry+OBJECT_PROPERTY_INDEX)), nil
}

// NameAddress returns the address of the object's encoded short name.
func (t *ObjectTree) NameAddress(objectIndex uint16) (uint32, bool, error) {
	table, err := t.propertyTable(objectIndex)
	if err != nil {
		return 0, false, err
	}
	n, err := t.mem.Byte(table)
	if err != nil {
		return 0, false, err
	}
	return table + 1, n > 0, nil
}

func (t *ObjectTree) firstPropertyAddress(objectIndex uint16) (uint32, error) {
	table, err := t.propertyTable(objectIndex)
	if err != nil {
		return 0, err
	}
	nameLength, err := t.mem.Byte(table) // in 2-byte words
	if err != nil {
		return 0, err
	}
	return table + uint32(nameLength)*2 + 1, nil
}

// propertyInfo returns the data address and size of a property, or 0, 0 if
// the object does not have it.
func (t *ObjectTree) propertyInfo(objectIndex uint16, propertyId uint16) (uint32, uint16, error) {
	if propertyId < 1 || propertyId > MAX_PROPERTY {
		return 0, 0, instructionErrorf("invalid property %d", propertyId)
	}
	propData, err := t.firstPropertyAddress(objectIndex)
	if err != nil {
		return 0, 0, err
	}
	for {
		propSize, err := t.mem.Byte(propData)
		if err != nil {
			return 0, 0, err
		}
		if propSize == 0 {
			return 0, 0, nil
		}
		propData++
		propNo := uint16(propSize & 0x1F)

		// Props are sorted
		if propNo < propertyId {
			return 0, 0, nil
		}
		numBytes := uint16(propSize>>5) + 1
		if propNo == propertyId {
			return propData, numBytes, nil
		}
		propData += uint32(numBytes)
	}
}

// PropertyAddress returns the address of the property's data, 0 if absent.
func (t *ObjectTree) PropertyAddress(objectIndex uint16, propertyId uint16) (uint32, error) {
	address, _, err := t.propertyInfo(objectIndex, propertyId)
	return address, err
}

// PropertyLength returns the size of the property whose data starts at
// address. Address 0 has length 0.
func (t *ObjectTree) PropertyLength(address uint32) (uint16, error) {
	if address == 0 {
		return 0, nil
	}
	// To get size, we need to go 1 byte back
	propSize, err := t.mem.Byte(address - 1)
	if err != nil {
		return 0, err
	}
	return uint16(propSize>>5) + 1, nil
}

// NextProperty returns the property after propertyId, the first one when
// propertyId is 0, and 0 at the end of the list.
func (t *ObjectTree) NextProperty(objectIndex uint16, propertyId uint16) (uint16, error) {
	var sizeAddress uint32
	// " if called with zero, it gives the first property number present."
	if propertyId == 0 {
		first, err := t.firstPropertyAddress(objectIndex)
		if err != nil {
			return 0, err
		}
		sizeAddress = first
	} else {
		propData, numBytes, err := t.propertyInfo(objectIndex, propertyId)
		if err != nil {
			return 0, err
		}
		if propData == 0 {
			return 0, instructionErrorf("object %d has no property %d", objectIndex, propertyId)
		}
		sizeAddress = propData + uint32(numBytes)
	}
	nextPropSize, err := t.mem.Byte(sizeAddress)
	if err != nil {
		return 0, err
	}
	// "zero, indicating the end of the property list"
	return uint16(nextPropSize & 0x1F), nil
}

func (t *ObjectTree) DefaultProperty(propertyIndex uint16) (uint16, error) {
	if propertyIndex < 1 || propertyIndex > MAX_PROPERTY {
		return 0, instructionErrorf("invalid property %d", propertyIndex)
	}
	// 1-based -> 0-based
	return t.mem.Word(t.address + uint32(propertyIndex-1)*2)
}

// Property reads a one or two byte property, falling back to the default.
func (t *ObjectTree) Property(objectIndex uint16, propertyId uint16) (uint16, error) {
	propData, numBytes, err := t.propertyInfo(objectIndex, propertyId)
	if err != nil {
		return 0, err
	}
	switch {
	case propData == 0:
		return t.DefaultProperty(propertyId)
	case numBytes == 1:
		b, err := t.mem.Byte(propData)
		return uint16(b), err
	case numBytes == 2:
		return t.mem.Word(propData)
	}
	return 0, instructionErrorf("get_prop on %d byte property %d of object %d", numBytes, propertyId, objectIndex)
}

func (t *ObjectTree) SetProperty(objectIndex uint16, propertyId uint16, value uint16) error {
	propData, numBytes, err := t.propertyInfo(objectIndex, propertyId)
	if err != nil {
		return err
	}
	switch {
	case propData == 0:
		return instructionErrorf("object %d has no property %d", objectIndex, propertyId)
	case numBytes == 1:
		return t.dynamic.SetByte(propData, uint8(value&0xFF))
	case numBytes == 2:
		return t.dynamic.SetWord(propData, value)
	}
	return instructionErrorf("put_prop on %d byte property %d of object %d", numBytes, propertyId, objectIndex)
}

func (t *ObjectTree) String() string {
	return fmt.Sprintf("objects at 0x%X (%d)", t.address, t.count)
}
