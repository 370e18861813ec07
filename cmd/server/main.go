package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tilephase/internal/catalog"
	"tilephase/internal/persistence/indexdb"
	persistlog "tilephase/internal/persistence/log"
	"tilephase/internal/profile"
	"tilephase/internal/session"
	"tilephase/internal/transport/ws"
	"tilephase/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		sheetPath  = flag.String("sheet", "", "tile sheet PNG to import (required)")
		variants   = flag.String("variants", "./configs/variants.json", "authored phase-variant catalog")
		schemaDir  = flag.String("schemas", "./schemas", "JSON schema directory (empty to skip validation)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index")
		snapshot   = flag.Bool("snapshot", true, "write a profile snapshot after import")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if strings.TrimSpace(*sheetPath) == "" {
		logger.Fatalf("missing -sheet")
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	schemaPath := ""
	if strings.TrimSpace(*schemaDir) != "" {
		schemaPath = filepath.Join(*schemaDir, "variants.schema.json")
	}
	cat, err := catalog.Load(*variants, schemaPath)
	if err != nil {
		logger.Fatalf("load variants: %v", err)
	}
	logger.Printf("variants: %d families, %d phases, digest %.12s", len(cat.Families), cat.NumPhases, cat.Digest)

	var index *indexdb.SQLiteIndex
	if !*disableDB {
		index, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer index.Close()
	}

	runLog := persistlog.NewRunLogger(*dataDir)
	defer runLog.Close()
	sweepLog := persistlog.NewSweepLogger(*dataDir)
	defer sweepLog.Close()

	sess, err := session.New(tune, session.Options{
		Index:    index,
		RunLog:   runLog,
		SweepLog: sweepLog,
	})
	if err != nil {
		logger.Fatalf("session: %v", err)
	}
	sess.LoadCatalog(cat)

	store, err := profile.LoadSheet(*sheetPath, tune.TileW, tune.TileH)
	if err != nil {
		logger.Fatalf("import sheet: %v", err)
	}
	if err := sess.Import(store); err != nil {
		logger.Fatalf("resolve: %v", err)
	}
	logger.Printf("imported %s: %d tiles (%dx%d), run %s", *sheetPath, store.Len(), store.Cols, store.Rows, sess.RunID())

	if *snapshot {
		snapPath := filepath.Join(*dataDir, "profiles", fmt.Sprintf("%s.jsonl.zst", sess.RunID()))
		if err := profile.WriteSnapshot(snapPath, store); err != nil {
			logger.Printf("snapshot: %v", err)
		} else {
			logger.Printf("snapshot: %s", snapPath)
		}
	}

	// Initial bind at phase 0.
	sess.SetPhase(0)

	wsServer := ws.NewServer(sess, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsServer.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Printf("shutting down")
		_ = srv.Close()
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}
