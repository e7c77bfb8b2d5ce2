package agent

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"wheelly/network"
)

const (
	modelMagic   uint32 = 0x57484c59 // "WHLY"
	modelVersion uint32 = 1

	binFileName = "agent.bin"
)

// ModelCorruptError reports a bad magic/version/length while loading
// agent.bin, per spec §7's ModelLoadCorrupt error kind (fatal at agent load).
type ModelCorruptError struct {
	Path string
	Err  error
}

func (e *ModelCorruptError) Error() string {
	return fmt.Sprintf("agent: model corrupt %s: %v", e.Path, e.Err)
}

func (e *ModelCorruptError) Unwrap() error { return e.Err }

// SaveError reports an I/O failure during autosave, per spec §7's
// AgentSaveFailure (log, keep the prior backup).
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("agent: save failed %s: %v", e.Path, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// Save writes agent.bin beneath spec.ModelPath: the scalar avgReward plus
// every named parameter's Value, per spec §6's binary property-map layout
// (magic, version, then a sequence of (name_len, name, ndims, dims, data)).
func (a *Agent) Save() error {
	path := filepath.Join(a.spec.ModelPath, binFileName)
	if err := os.MkdirAll(a.spec.ModelPath, 0o755); err != nil {
		return &SaveError{Path: path, Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := writeModel(w, a.avgReward.Load(), a.net.NamedParams()); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	return nil
}

// autosave backs up the existing agent.bin once per run (before the first
// overwrite of this session), then writes the new one, per spec §4.5/§6.
func (a *Agent) autosave() error {
	if !a.backedUp {
		copied, err := a.backup()
		if err != nil {
			return err
		}
		a.backedUp = copied
	}
	return a.Save()
}

// backup copies agent.bin to a timestamped file, reporting whether a copy
// was made (false when there is no agent.bin yet).
func (a *Agent) backup() (bool, error) {
	src := filepath.Join(a.spec.ModelPath, binFileName)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return false, nil // nothing to back up yet on a fresh model
	}

	stamp := time.Now().Format("20060102-150405")
	dst := filepath.Join(a.spec.ModelPath, fmt.Sprintf("agent-%s.bin", stamp))

	in, err := os.Open(src)
	if err != nil {
		return false, &SaveError{Path: dst, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, &SaveError{Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return false, &SaveError{Path: dst, Err: err}
	}
	return true, nil
}

// Load rebuilds an agent from spec and reads agent.bin beneath
// spec.ModelPath back into its network, per spec §3's "self-describing
// model" invariant: spec + weight map reconstruct identical training
// state. The caller attaches a KPI sink afterward if one is wanted.
func Load(spec *Spec) (*Agent, error) {
	a, err := New(spec, nil)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(spec.ModelPath, binFileName)
	file, err := os.Open(path)
	if err != nil {
		return nil, &ModelCorruptError{Path: path, Err: err}
	}
	defer file.Close()

	avgReward, err := readModel(bufio.NewReader(file), a.net.NamedParams())
	if err != nil {
		return nil, &ModelCorruptError{Path: path, Err: err}
	}
	a.avgReward.Store(avgReward)
	return a, nil
}

func writeModel(w io.Writer, avgReward float32, named map[string]*network.Param) error {
	if err := binary.Write(w, binary.LittleEndian, modelMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, modelVersion); err != nil {
		return err
	}

	if err := writeRecord(w, "avgReward", []uint32{1}, []float32{avgReward}); err != nil {
		return err
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := named[name]
		dims := []uint32{uint32(p.Value.Rows), uint32(p.Value.Cols)}
		if err := writeRecord(w, name, dims, p.Value.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(w io.Writer, name string, dims []uint32, data []float32) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(dims))); err != nil {
		return err
	}
	for _, d := range dims {
		if err := binary.Write(w, binary.LittleEndian, d); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readModel(r io.Reader, named map[string]*network.Param) (float32, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != modelMagic {
		return 0, fmt.Errorf("bad magic %x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if version != modelVersion {
		return 0, fmt.Errorf("unsupported version %d", version)
	}

	var avgReward float32
	for {
		name, dims, data, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		if name == "avgReward" {
			if len(data) != 1 {
				return 0, fmt.Errorf("avgReward record has %d values", len(data))
			}
			avgReward = data[0]
			continue
		}

		p, ok := named[name]
		if !ok {
			continue // tolerate a saved param the current spec no longer declares
		}
		if len(dims) != 2 || int(dims[0]) != p.Value.Rows || int(dims[1]) != p.Value.Cols {
			return 0, fmt.Errorf("shape mismatch for %q", name)
		}
		copy(p.Value.Data, data)
	}
	return avgReward, nil
}

func readRecord(r io.Reader) (name string, dims []uint32, data []float32, err error) {
	var nameLen uint16
	if err = binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return
	}
	nameBytes := make([]byte, nameLen)
	if _, err = io.ReadFull(r, nameBytes); err != nil {
		return
	}
	name = string(nameBytes)

	var ndims uint8
	if err = binary.Read(r, binary.LittleEndian, &ndims); err != nil {
		return
	}
	dims = make([]uint32, ndims)
	for i := range dims {
		if err = binary.Read(r, binary.LittleEndian, &dims[i]); err != nil {
			return
		}
	}

	count := uint32(1)
	for _, d := range dims {
		count *= d
	}
	data = make([]float32, count)
	if err = binary.Read(r, binary.LittleEndian, data); err != nil {
		return
	}
	return
}
