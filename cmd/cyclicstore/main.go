// cmd/cyclicstore/main.go
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/tamzrod/cyclic-store/internal/config"
	"github.com/tamzrod/cyclic-store/internal/layout"
	"github.com/tamzrod/cyclic-store/internal/poller"
	"github.com/tamzrod/cyclic-store/internal/recorder"
	"github.com/tamzrod/cyclic-store/internal/store"
	"github.com/tamzrod/cyclic-store/internal/writer"
)

const usage = "usage: cyclicstore <config.yaml> metrics|write <hex>|latest|format|layout|record"

var (
	label = color.New(color.FgCyan).SprintFunc()
	ok    = color.New(color.FgGreen).SprintFunc()
	warn  = color.New(color.FgYellow).SprintFunc()
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfgPath, cmd, args := os.Args[1], os.Args[2], os.Args[3:]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	// layout never touches the device
	if cmd == "layout" {
		printLayout(cfg)
		return
	}

	// --------------------
	// Open device + store
	// --------------------

	st, closeStore, err := openStore(cfg)
	if err != nil && (st == nil || cmd != "format") {
		log.Fatalf("store open failed: %v", err)
	}
	defer closeStore()

	switch cmd {
	case "metrics":
		printMetrics(st)

	case "write":
		if len(args) != 1 {
			log.Fatal(usage)
		}
		rec, err := hex.DecodeString(args[0])
		if err != nil {
			log.Fatalf("record is not hex: %v", err)
		}
		if len(rec) > st.RecordSize() {
			log.Fatalf("record of %d bytes exceeds record size %d", len(rec), st.RecordSize())
		}
		padded := make([]byte, st.RecordSize())
		copy(padded, rec)

		if err := st.Write(padded); err != nil {
			log.Fatalf("write failed: %v", err)
		}
		printMetrics(st)

	case "latest":
		rec, err := st.Latest()
		if errors.Is(err, store.ErrEmpty) {
			fmt.Println(warn("empty"))
			return
		}
		if err != nil {
			log.Fatalf("latest failed: %v", err)
		}
		fmt.Println(hex.EncodeToString(rec))

	case "format":
		if err := st.Format(); err != nil {
			log.Fatalf("format failed: %v", err)
		}
		fmt.Println(ok("formatted"))
		printMetrics(st)

	case "record":
		if cfg.Recorder == nil {
			log.Fatal("record: recorder section missing from config")
		}
		runRecorder(cfg, st)

	default:
		log.Fatal(usage)
	}
}

// runRecorder wires poller → recorder (→ status writer) and blocks until
// interrupted.
func runRecorder(cfg *config.Config, st *store.Store) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- poller ----
	p, closePoller, err := poller.Build(*cfg.Recorder)
	if err != nil {
		log.Fatalf("poller build failed (source=%s): %v", cfg.Recorder.Endpoint, err)
	}
	defer closePoller()

	// ---- status writer (optional) ----
	sw, closeStatus, err := writer.BuildStatusWriter(cfg)
	if err != nil {
		log.Fatalf("status writer build failed: %v", err)
	}
	defer closeStatus()

	rec, err := recorder.New(st, sw)
	if err != nil {
		log.Fatalf("recorder build failed: %v", err)
	}

	// ---- channel between poller and recorder ----
	out := make(chan poller.PollResult)
	go p.Run(ctx, out)

	log.Printf("recording %s every %dms into %q", cfg.Recorder.Endpoint, cfg.Recorder.IntervalMs, cfg.Store.Name)
	rec.Run(ctx, out)
	log.Printf("recorder stopped: %+v", rec.Snapshot())
}

func printMetrics(st *store.Store) {
	m, err := st.Metrics()
	if err != nil {
		log.Fatalf("metrics failed: %v", err)
	}
	fmt.Printf("%s %d\n", label("slot_count:  "), m.SlotCount)
	fmt.Printf("%s %d\n", label("write_count: "), m.WriteCount)
	fmt.Printf("%s %d\n", label("current_slot:"), m.CurrentSlot)
}

func printLayout(cfg *config.Config) {
	pageSize := cfg.Store.PageSize
	if pageSize == 0 {
		pageSize = cfg.Device.PageSize
	}

	l, err := layout.Plan(pageSize, cfg.Store.ReservedPages, uint32(cfg.Store.RecordSize))
	if err != nil {
		log.Fatalf("layout failed: %v", err)
	}
	fmt.Printf("%s %d\n", label("page_size:     "), l.PageSize)
	fmt.Printf("%s %d\n", label("reserved_pages:"), l.ReservedPages)
	fmt.Printf("%s %d\n", label("record_size:   "), l.RecordSize)
	fmt.Printf("%s %d\n", label("slot_size:     "), l.SlotSize)
	fmt.Printf("%s %d\n", label("slot_count:    "), l.SlotCount)
	fmt.Printf("%s %d\n", label("region_bytes:  "), l.RegionSize())
}
