// tcp_health analyzes a packet capture and reports the health of every TCP
// conversation it contains.
//
// Usage:
//
//	tcp_health --file capture.pcap [--json report.json] [--top 5]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/tcp-health/engine"
	"github.com/m-lab/tcp-health/schema"
	"github.com/m-lab/tcp-health/tcphealth"
)

var (
	file     = flag.String("file", "", "Path to the .pcap capture to analyze (may be .gz or .zst compressed)")
	jsonPath = flag.String("json", "", "Write the JSON report to this path")
	top      = flag.Int("top", 5, "Number of conversations to show per top list")
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not parse flags from environment")
	if *file == "" {
		fmt.Fprintln(os.Stderr, "the --file flag is required")
		os.Exit(1)
	}

	eng := engine.New()
	eng.Register(tcphealth.New())

	report, err := eng.Run(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *jsonPath != "" {
		data, err := json.Marshal(report)
		rtx.Must(err, "Could not marshal the report")
		rtx.Must(os.WriteFile(*jsonPath, data, 0o644), "Could not write %s", *jsonPath)
		log.Printf("JSON report written to %s", *jsonPath)
	}

	printReport(os.Stdout, report, *top)
}

// printReport writes the human-readable summary for the tcp_health payload.
func printReport(w *os.File, report *schema.Report, topN int) {
	fmt.Fprintf(w, "File: %s (%d packets, %d ms, %.2f Mbps)\n",
		report.Summary.File, report.Summary.PacketsTotal,
		report.Summary.DurationMS, report.Summary.ThroughputMbps)

	payload, ok := report.Detectors[tcphealth.DetectorName].(schema.TCPHealth)
	if !ok {
		return
	}
	fmt.Fprintf(w, "Found %d distinct TCP conversations.\n", payload.ConversationsTotal)

	fmt.Fprintf(w, "\nTop %d conversations by severity:\n", topN)
	for i, entry := range payload.TopBySeverity {
		if i >= topN {
			break
		}
		fmt.Fprintf(w, "  - %s  score=%d (%s)\n", entry.Flow, entry.Score.Value, entry.Score.Level)
		for _, r := range entry.Reasons {
			fmt.Fprintf(w, "      reason: %s\n", r)
		}
		printDir(w, "->", "C->S", entry.C2S)
		printDir(w, "<-", "S->C", entry.S2C)
	}

	fmt.Fprintf(w, "\nTop %d conversations by packet volume:\n", topN)
	for i, entry := range payload.TopByPackets {
		if i >= topN {
			break
		}
		fmt.Fprintf(w, "  - %s  total=%d\n", entry.Flow, entry.TotalPackets)
		printDir(w, "->", "C->S", entry.C2S)
		printDir(w, "<-", "S->C", entry.S2C)
	}
}

func printDir(w *os.File, arrow, name string, d schema.DirStats) {
	fmt.Fprintf(w, "    %s %s: packets=%d retrans=%d ooo=%d zwin=%d dupacks=%d rtt p50=%.1fms p95=%.1fms (%d samples)\n",
		arrow, name, d.Packets, d.Retransmissions, d.OutOfOrder,
		d.ZeroWindowEvents, d.DuplicateAckEvents,
		d.RTTms.P50, d.RTTms.P95, d.RTTms.Samples)
}
