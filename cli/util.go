package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hako/durafmt"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/chain/benchmarks"
	"github.com/capmarket/capmarket/chain/types"
)

var fromFlag = &cli.StringFlag{
	Name:     "from",
	Usage:    "address the command acts for",
	Required: true,
}

func fromAddress(cctx *cli.Context) (address.Address, error) {
	return parseAddress(cctx.String(fromFlag.Name))
}

func parseAddress(s string) (address.Address, error) {
	if s == "" {
		return address.Undef, nil
	}
	a, err := address.NewFromString(s)
	if err != nil {
		return address.Undef, xerrors.Errorf("parsing address %q: %w", s, err)
	}
	return a, nil
}

func parseID(cctx *cli.Context, pos int, what string) (uint64, error) {
	arg := cctx.Args().Get(pos)
	if arg == "" {
		return 0, ShowHelp(cctx, xerrors.Errorf("missing %s", what))
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, ShowHelp(cctx, xerrors.Errorf("parsing %s %q: %w", what, arg, err))
	}
	return id, nil
}

func parsePrice(s string) (big.Int, error) {
	p, err := big.FromString(s)
	if err != nil {
		return big.Zero(), xerrors.Errorf("parsing price %q: %w", s, err)
	}
	return p, nil
}

// parseBenchmarks turns code=value pairs into a map.
func parseBenchmarks(pairs []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(pairs))
	for _, p := range pairs {
		code, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, xerrors.Errorf("benchmark %q is not code=value", p)
		}
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return nil, xerrors.Errorf("benchmark %q: %w", code, err)
		}
		out[code] = v
	}
	return out, nil
}

func parseNetflags(s string) ([]bool, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]bool, len(parts))
	for i, p := range parts {
		b, err := strconv.ParseBool(strings.TrimSpace(p))
		if err != nil {
			return nil, xerrors.Errorf("netflag %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func durationSeconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}

func fmtDuration(secs uint64) string {
	if secs == 0 {
		return "spot"
	}
	return durafmt.Parse(time.Duration(secs) * time.Second).LimitFirstN(2).String()
}

func fmtTime(unix uint64) string {
	if unix == 0 {
		return "-"
	}
	t := time.Unix(int64(unix), 0)
	return t.Format(time.RFC3339) + " (" + humanize.Time(t) + ")"
}

func fmtAddr(a address.Address) string {
	if a == address.Undef {
		return "-"
	}
	return a.String()
}

func fmtDealStatus(s types.DealStatus) string {
	switch s {
	case types.DealAccepted:
		return color.GreenString(s.String())
	case types.DealClosed:
		return color.RedString(s.String())
	}
	return s.String()
}

func fmtOrderStatus(s types.OrderStatus) string {
	if s == types.OrderActive {
		return color.GreenString(s.String())
	}
	return color.YellowString(s.String())
}

func fmtRequestStatus(s types.RequestStatus) string {
	switch s {
	case types.RequestAccepted:
		return color.GreenString(s.String())
	case types.RequestCreated:
		return color.YellowString(s.String())
	}
	return color.RedString(s.String())
}

func newTabWriter(a *AppFmt) *tabwriter.Writer {
	return tabwriter.NewWriter(a.w(), 2, 4, 2, ' ', 0)
}

func fmtRow(cols ...interface{}) string {
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(fmt.Sprint(c))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func benchmarkList(infos []api.BenchmarkInfo) (*benchmarks.List, error) {
	bs := make([]benchmarks.Benchmark, len(infos))
	for i, b := range infos {
		bs[i] = benchmarks.Benchmark{
			ID:          b.ID,
			Code:        b.Code,
			Type:        benchmarks.DeviceType(b.Type),
			Description: b.Description,
		}
	}
	return benchmarks.New(bs)
}
