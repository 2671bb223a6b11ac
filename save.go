package zmachine

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const SAVE_FORMAT_VERSION = 1

// SaveStore is where the host keeps snapshots. A front end usually asks
// the player for a file name inside Save and Restore.
type SaveStore interface {
	Save(data []byte) error
	Restore() ([]byte, error)
}

type SavedRoutine struct {
	Locals   []uint16 `json:"locals"`
	Stack    []uint16 `json:"stack"`
	StoreTo  *int     `json:"store_to"`
	ReturnTo uint32   `json:"return_to"`
}

// SaveData is a complete machine snapshot. PC is the address of the save
// instruction that produced it.
type SaveData struct {
	Version  int            `json:"version"`
	Checksum string         `json:"checksum"`
	Memory   []byte         `json:"memory"`
	Routines []SavedRoutine `json:"routines"`
	PC       uint32         `json:"pc"`
}

func checksumString(sum uint16) string {
	return fmt.Sprintf("%04x", sum)
}

// SaveData snapshots memory, the call stack and the program counter.
func (z *Interpreter) SaveData() *SaveData {
	d := &SaveData{
		Version:  SAVE_FORMAT_VERSION,
		Checksum: checksumString(z.story.Checksum()),
		Memory:   z.story.Memory.Bytes(),
		PC:       z.pc,
	}
	for _, r := range z.stack.Frames() {
		c := r.clone()
		sr := SavedRoutine{Locals: c.Locals, Stack: c.Stack, ReturnTo: c.ReturnTo}
		if c.Store {
			v := int(c.StoreVariable)
			sr.StoreTo = &v
		}
		d.Routines = append(d.Routines, sr)
	}
	return d
}

func (d *SaveData) validate(z *Interpreter) error {
	if d.Version != SAVE_FORMAT_VERSION {
		return &InvalidSaveDataError{Msg: fmt.Sprintf("format version %d, expected %d", d.Version, SAVE_FORMAT_VERSION)}
	}
	if want := checksumString(z.story.Checksum()); d.Checksum != want {
		return &InvalidSaveDataError{Msg: fmt.Sprintf("checksum %s does not match story %s", d.Checksum, want)}
	}
	if uint32(len(d.Memory)) != z.story.Memory.Len() {
		return &InvalidSaveDataError{Msg: fmt.Sprintf("memory is %d bytes, story has %d", len(d.Memory), z.story.Memory.Len())}
	}
	if len(d.Routines) == 0 || len(d.Routines) > MAX_CALL_DEPTH {
		return &InvalidSaveDataError{Msg: fmt.Sprintf("%d routines", len(d.Routines))}
	}
	for i, r := range d.Routines {
		if len(r.Locals) > MAX_LOCALS || len(r.Stack) > MAX_STACK {
			return &InvalidSaveDataError{Msg: fmt.Sprintf("routine %d has %d locals and %d stack entries", i, len(r.Locals), len(r.Stack))}
		}
		if r.StoreTo != nil && (*r.StoreTo < 0 || *r.StoreTo > 0xFF) {
			return &InvalidSaveDataError{Msg: fmt.Sprintf("routine %d stores to variable %d", i, *r.StoreTo)}
		}
	}
	if d.PC >= z.story.Memory.Len() {
		return &InvalidSaveDataError{Msg: fmt.Sprintf("pc 0x%X outside memory", d.PC)}
	}
	return nil
}

// RestoreSaveData replaces memory, the call stack and the program counter.
// Nothing changes unless the snapshot matches the loaded story.
func (z *Interpreter) RestoreSaveData(d *SaveData) error {
	if err := d.validate(z); err != nil {
		return err
	}

	frames := make([]*Routine, 0, len(d.Routines))
	for _, sr := range d.Routines {
		r := &Routine{
			Locals:   append([]uint16{}, sr.Locals...),
			Stack:    append([]uint16{}, sr.Stack...),
			ReturnTo: sr.ReturnTo,
		}
		if sr.StoreTo != nil {
			r.Store = true
			r.StoreVariable = uint8(*sr.StoreTo)
		}
		frames = append(frames, r)
	}

	// The transcript and fixed-pitch bits belong to the session, not the snapshot.
	mem := z.story.Memory
	keep := mem.buf[hdrFlags2+1] & flags2WritableMask
	mem.restore(d.Memory)
	mem.buf[hdrFlags2+1] = mem.buf[hdrFlags2+1]&^flags2WritableMask | keep

	z.stack.frames = frames
	z.pc = d.PC
	z.state = Running
	z.pendingRead = nil
	return nil
}

func MarshalSaveData(d *SaveData) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "encoding save data")
	}
	return b, nil
}

func UnmarshalSaveData(b []byte) (*SaveData, error) {
	d := &SaveData{}
	if err := json.Unmarshal(b, d); err != nil {
		return nil, &InvalidSaveDataError{Msg: errors.Wrap(err, "decoding save data").Error()}
	}
	return d, nil
}

func (z *Interpreter) saveToStore() bool {
	if z.saves == nil {
		log.Warn("save requested but no save store is configured")
		return false
	}
	b, err := MarshalSaveData(z.SaveData())
	if err == nil {
		err = z.saves.Save(b)
	}
	if err != nil {
		log.WithError(err).Warn("save failed")
		return false
	}
	return true
}

// restoreFromStore loads a snapshot. On success execution continues as if
// the original save had just succeeded; otherwise restore's own branch is
// taken as failed.
func (z *Interpreter) restoreFromStore(in *Instruction) error {
	if err := z.loadFromStore(); err != nil {
		log.WithError(err).Warn("restore failed")
		return z.applyAction(GenericBranch(in, false))
	}
	saveIn, err := z.decoder.Decode(z.pc)
	if err != nil {
		return errors.Wrap(err, "decoding restored save instruction")
	}
	if saveIn.Branch == nil {
		return interpreterErrorf("restored pc 0x%X is not a save instruction (%s)", z.pc, saveIn.Opcode.Name)
	}
	z.last = saveIn
	return z.applyAction(GenericBranch(saveIn, true))
}

func (z *Interpreter) loadFromStore() error {
	if z.saves == nil {
		return errors.New("no save store configured")
	}
	b, err := z.saves.Restore()
	if err != nil {
		return err
	}
	d, err := UnmarshalSaveData(b)
	if err != nil {
		return err
	}
	return z.RestoreSaveData(d)
}
