// Command quartosprof turns a captured QEMU serial log containing a
// kernel.DumpAccounting hex dump into a pprof-format CPU profile, one
// sample per process keyed by name, so scheduler activity recorded by a
// running kernel can be loaded into `go tool pprof` or speedscope. This
// is the host-side, off-target equivalent of biscuit's D_PROF profiling
// device and stats package — the kernel itself has no business linking
// a profile encoder, so the decode happens here instead.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/google/pprof/profile"
	"golang.org/x/sync/errgroup"
)

const nameLen = 16 // mirrors internal/klimits.NameLen

// record is one process's decoded accounting snapshot.
type record struct {
	name   string
	userns int64
	sysns  int64
}

var hexLinePattern = regexp.MustCompile(`^[0-9a-f]{7}: `)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <serial-log> <output.pprof>\n", os.Args[0])
		os.Exit(1)
	}
	logPath, outPath := os.Args[1], os.Args[2]

	buf, err := decodeHexDump(logPath)
	if err != nil {
		panic(err)
	}

	recs, err := decodeRecords(buf)
	if err != nil {
		panic(err)
	}

	prof := buildProfile(recs)
	out, err := os.Create(outPath)
	if err != nil {
		panic(err)
	}
	defer out.Close()
	if err := prof.Write(out); err != nil {
		panic(err)
	}
}

// decodeHexDump reads a serial log and reassembles the raw bytes from
// every kernel.DumpAccounting line — "offset: pair pair pair ..." — in
// the order their offsets appear, ignoring any other UART output
// interleaved in the same capture (boot banners, user program output).
func decodeHexDump(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !hexLinePattern.MatchString(line) {
			continue
		}
		rest := strings.TrimSpace(line[len("0000000: "):])
		rest = strings.ReplaceAll(rest, " ", "")
		decoded, err := hex.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("quartosprof: decoding line %q: %w", line, err)
		}
		out = append(out, decoded...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// recordSize is the encoded size of one process's accounting record:
// a fixed-length name, then two big-endian uint64 nanosecond counters.
const recordSize = nameLen + 8 + 8

// decodeRecords splits buf into fixed-width records and decodes each
// concurrently with an errgroup.Group, the idiom the wider corpus uses
// whenever independent host-side work items are joined with error
// propagation — decoding one record can never depend on another, so
// there is no reason to serialize the work.
func decodeRecords(buf []byte) ([]record, error) {
	if len(buf)%recordSize != 0 {
		return nil, fmt.Errorf("quartosprof: %d bytes is not a multiple of the %d-byte record size", len(buf), recordSize)
	}
	n := len(buf) / recordSize
	recs := make([]record, n)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			rec := buf[i*recordSize : (i+1)*recordSize]
			recs[i] = decodeRecord(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

func decodeRecord(rec []byte) record {
	name := rec[:nameLen]
	end := len(name)
	for end > 0 && name[end-1] == 0 {
		end--
	}
	userns := beUint64(rec[nameLen : nameLen+8])
	sysns := beUint64(rec[nameLen+8 : nameLen+16])
	return record{name: string(name[:end]), userns: int64(userns), sysns: int64(sysns)}
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// buildProfile encodes recs as a pprof profile with two sample types,
// user and system nanoseconds, one sample per process keyed by a
// single synthetic location/function carrying the process's name —
// there are no real call stacks to report, only the scheduler's own
// per-process accounting totals.
func buildProfile(recs []record) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "user", Unit: "nanoseconds"},
			{Type: "sys", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:     1,
	}

	for i, rec := range recs {
		id := uint64(i + 1)
		fn := &profile.Function{
			ID:   id,
			Name: rec.name,
		}
		loc := &profile.Location{
			ID:   id,
			Line: []profile.Line{{Function: fn, Line: 0}},
		}
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{rec.userns, rec.sysns},
			Label:    map[string][]string{"process": {rec.name}},
		})
	}
	return prof
}
