package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"

	"golang.org/x/xerrors"
)

type DeviceType string

const (
	DeviceCPU     DeviceType = "cpu"
	DeviceRAM     DeviceType = "ram"
	DeviceStorage DeviceType = "storage"
	DeviceNetwork DeviceType = "network"
	DeviceGPU     DeviceType = "gpu"
)

// Benchmark describes one position in an order's benchmark vector.
type Benchmark struct {
	ID          uint64     `json:"id"`
	Code        string     `json:"-"`
	Type        DeviceType `json:"type"`
	Description string     `json:"description"`
}

// List maps benchmark codes to vector positions.
type List struct {
	byID   []*Benchmark
	byCode map[string]*Benchmark
}

var defaultBenchmarks = map[string]*Benchmark{
	"cpu-sysbench-multi":  {ID: 0, Type: DeviceCPU, Description: "sysbench multi-thread score"},
	"cpu-sysbench-single": {ID: 1, Type: DeviceCPU, Description: "sysbench single-thread score"},
	"cpu-cores":           {ID: 2, Type: DeviceCPU, Description: "number of CPU cores"},
	"ram-size":            {ID: 3, Type: DeviceRAM, Description: "RAM size in bytes"},
	"storage-size":        {ID: 4, Type: DeviceStorage, Description: "storage size in bytes"},
	"net-download":        {ID: 5, Type: DeviceNetwork, Description: "download bandwidth in bits per second"},
	"net-upload":          {ID: 6, Type: DeviceNetwork, Description: "upload bandwidth in bits per second"},
	"gpu-count":           {ID: 7, Type: DeviceGPU, Description: "number of GPUs"},
	"gpu-mem":             {ID: 8, Type: DeviceGPU, Description: "GPU memory in bytes"},
	"gpu-eth-hashrate":    {ID: 9, Type: DeviceGPU, Description: "ethash hashrate"},
	"gpu-cash-hashrate":   {ID: 10, Type: DeviceGPU, Description: "equihash hashrate"},
	"gpu-redshift":        {ID: 11, Type: DeviceGPU, Description: "redshift render score"},
}

// Default returns the built-in benchmark list.
func Default() *List {
	l, err := newList(defaultBenchmarks)
	if err != nil {
		panic(err)
	}
	return l
}

// New builds a list from benchmarks that carry their codes.
func New(bs []Benchmark) (*List, error) {
	data := make(map[string]*Benchmark, len(bs))
	for i := range bs {
		if _, dup := data[bs[i].Code]; dup {
			return nil, xerrors.Errorf("malformed benchmark list: duplicate code %q", bs[i].Code)
		}
		data[bs[i].Code] = &bs[i]
	}
	return newList(data)
}

func newList(data map[string]*Benchmark) (*List, error) {
	var max uint64
	for _, b := range data {
		if b.ID > max {
			max = b.ID
		}
	}
	if uint64(len(data)) != max+1 {
		return nil, xerrors.Errorf("malformed benchmark list: %d entries but highest id is %d", len(data), max)
	}

	l := &List{
		byID:   make([]*Benchmark, max+1),
		byCode: make(map[string]*Benchmark, len(data)),
	}
	for code, b := range data {
		if l.byID[b.ID] != nil {
			return nil, xerrors.Errorf("malformed benchmark list: duplicate id %d", b.ID)
		}
		bc := *b
		bc.Code = code
		l.byID[b.ID] = &bc
		l.byCode[code] = &bc
	}
	return l, nil
}

// Load reads a benchmark list from a file:// or http(s):// URL. The
// document is a JSON object keyed by benchmark code.
func Load(ctx context.Context, src string) (*List, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, xerrors.Errorf("parsing benchmark list url: %w", err)
	}

	var r io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, xerrors.Errorf("downloading benchmark list: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, xerrors.Errorf("downloading benchmark list: got %s status", resp.Status)
		}
		r = resp.Body
	case "file", "":
		r, err = os.Open(u.Path)
		if err != nil {
			return nil, xerrors.Errorf("opening benchmark list: %w", err)
		}
	default:
		return nil, xerrors.Errorf("unknown benchmark list url scheme %q", u.Scheme)
	}
	defer r.Close() //nolint:errcheck

	data := map[string]*Benchmark{}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, xerrors.Errorf("decoding benchmark list: %w", err)
	}
	return newList(data)
}

func (l *List) Len() uint64 {
	return uint64(len(l.byID))
}

func (l *List) ByID(id uint64) (*Benchmark, bool) {
	if id >= uint64(len(l.byID)) {
		return nil, false
	}
	return l.byID[id], true
}

func (l *List) ByCode(code string) (*Benchmark, bool) {
	b, ok := l.byCode[code]
	return b, ok
}

// Codes returns the benchmark codes in vector order.
func (l *List) Codes() []string {
	out := make([]string, len(l.byID))
	for i, b := range l.byID {
		out[i] = b.Code
	}
	return out
}

// Vector builds a benchmark vector of length n from values keyed by code.
// Missing codes are zero.
func (l *List) Vector(values map[string]uint64, n uint64) ([]uint64, error) {
	if n < l.Len() {
		return nil, xerrors.Errorf("vector length %d is shorter than the benchmark list (%d)", n, l.Len())
	}
	vec := make([]uint64, n)
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		b, ok := l.byCode[code]
		if !ok {
			return nil, xerrors.Errorf("unknown benchmark %q", code)
		}
		vec[b.ID] = values[code]
	}
	return vec, nil
}

// Describe maps a benchmark vector back to codes. Positions beyond the
// list are reported as "bench-<id>".
func (l *List) Describe(vec []uint64) map[string]uint64 {
	out := make(map[string]uint64, len(vec))
	for i, v := range vec {
		if b, ok := l.ByID(uint64(i)); ok {
			out[b.Code] = v
			continue
		}
		out[fmt.Sprintf("bench-%d", i)] = v
	}
	return out
}
