package brindex

import (
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
)

func hr(n uint64) string {
	return datasize.ByteSize(n).HumanReadable()
}

// PrintSpace writes a per-component space breakdown to w and returns the
// total size in bytes. Diagnostic only; the figures are in-memory estimates,
// not the exact on-disk sizes.
func (x *Index) PrintSpace(w io.Writer) uint64 {
	fmt.Fprintf(w, "text length           : %d\n", x.BwtSize())
	fmt.Fprintf(w, "alphabet size         : %d\n", x.sigma)
	fmt.Fprintf(w, "number of runs in bwt : %d\n", x.bwt.NumRuns())
	fmt.Fprintf(w, "number of runs in bwtR: %d\n\n", x.bwtR.NumRuns())

	header := uint64(8 + 256 + 256 + 8 + 8 + 8 + 257*8)
	tot := header

	report := func(name string, sz uint64) {
		tot += sz
		fmt.Fprintf(w, "%-15s: %s\n", name, hr(sz))
	}

	report("bwt", x.bwt.sizeBytes())
	report("bwtR", x.bwtR.sizeBytes())

	report("samples_first", x.samplesFirst.sizeBytes())
	report("samples_last", x.samplesLast.sizeBytes())
	report("inv_order", x.invOrder.sizeBytes())

	report("first", x.first.sizeBytes())
	report("first_to_run", x.firstToRun.sizeBytes())

	report("last", x.last.sizeBytes())
	report("last_to_run", x.lastToRun.sizeBytes())

	report("samples_firstR", x.samplesFirstR.sizeBytes())
	report("samples_lastR", x.samplesLastR.sizeBytes())
	report("inv_orderR", x.invOrderR.sizeBytes())

	if x.plcp != nil {
		report("plcp", x.plcp.sizeBytes())
	} else {
		report("inv_order_firstR", x.invOrderFirstR.sizeBytes())
	}

	fmt.Fprintf(w, "\n<total space of br-index>: %s (%d bytes)\n", hr(tot), tot)
	return tot
}
