// Command pagestore-shell is a readline REPL for exercising the buffer
// pool and B+Tree page primitives directly, grounded in the teacher's
// cmd/client (readline wiring, history file) and cmd/manual_test/btree
// (poking at page primitives one command at a time). It does not drive
// a full tree insert/search: the structural-modification driver that
// composes these primitives into tree-level operations is out of scope
// (spec.md's Out-of-scope list).
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/novasql-labs/pagestore/internal/buffer"
	"github.com/novasql-labs/pagestore/internal/config"
	"github.com/novasql-labs/pagestore/internal/index"
	"github.com/novasql-labs/pagestore/internal/storage"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagestore_history"
	}
	return filepath.Join(home, ".pagestore_history")
}

type shell struct {
	cfg      config.Config
	disk     *storage.FilePager
	pool     *buffer.Pool
	keyWidth int
}

func newShell(cfg config.Config) (*shell, error) {
	disk, err := storage.NewFilePager(cfg.Storage.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Storage.File, err)
	}
	pool := buffer.NewPool(cfg.Buffer.PoolSize, disk, storage.NopLogManager{})
	return &shell{cfg: cfg, disk: disk, pool: pool, keyWidth: cfg.Index.KeyWidth}, nil
}

func (s *shell) close() error { return s.disk.Close() }

func (s *shell) key(raw string) ([]byte, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("key must be an unsigned integer: %w", err)
	}
	buf := make([]byte, s.keyWidth)
	switch s.keyWidth {
	case 4:
		index.EncodeUint32Key(buf, uint32(v))
	case 8:
		index.EncodeUint64Key(buf, v)
	default:
		for i := 0; i < s.keyWidth; i++ {
			buf[s.keyWidth-1-i] = byte(v >> (8 * i))
		}
	}
	return buf, nil
}

func parsePageID(raw string) (storage.PageId, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return storage.InvalidPageID, err
	}
	return storage.PageId(v), nil
}

func (s *shell) dispatch(args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "newpage":
		g, id, err := s.pool.NewPageGuarded()
		if err != nil {
			return err
		}
		defer func() { _ = g.Release(true) }()
		fmt.Printf("allocated page %d\n", id)
	case "delete":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		ok, err := s.pool.DeletePage(id)
		if err != nil {
			return err
		}
		fmt.Printf("deleted=%v\n", ok)
	case "flush":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		ok, err := s.pool.Flush(id)
		if err != nil {
			return err
		}
		fmt.Printf("flushed=%v\n", ok)
	case "flushall":
		if err := s.pool.FlushAll(); err != nil {
			return err
		}
		fmt.Println("flushed all")
	case "initleaf":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		index.InitLeafPage(g.Bytes(), s.keyWidth, id, storage.InvalidPageID)
		_ = g.Release(true)
		fmt.Printf("page %d formatted as leaf\n", id)
	case "initinternal":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		firstChild, err := parsePageID(arg(args, 2))
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		index.InitInternalPage(g.Bytes(), s.keyWidth, id, storage.InvalidPageID, firstChild)
		_ = g.Release(true)
		fmt.Printf("page %d formatted as internal, first child %d\n", id, firstChild)
	case "leafinsert":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		key, err := s.key(arg(args, 2))
		if err != nil {
			return err
		}
		valPage, err := parsePageID(arg(args, 3))
		if err != nil {
			return err
		}
		slot, err := strconv.ParseUint(arg(args, 4), 10, 16)
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		view := index.NewLeafPageView(g.Bytes(), s.keyWidth)
		n, err := view.Insert(key, index.RecordId{PageID: valPage, Slot: uint16(slot)}, index.BytesComparator)
		_ = g.Release(true)
		if err != nil {
			return err
		}
		fmt.Printf("leaf %d size now %d\n", id, n)
	case "leaflookup":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		key, err := s.key(arg(args, 2))
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		view := index.NewLeafPageView(g.Bytes(), s.keyWidth)
		rec, ok := view.Lookup(key, index.BytesComparator)
		_ = g.Release(false)
		if !ok {
			fmt.Println("not found")
			return nil
		}
		fmt.Printf("rid = (page %d, slot %d)\n", rec.PageID, rec.Slot)
	case "leafremove":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		key, err := s.key(arg(args, 2))
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		view := index.NewLeafPageView(g.Bytes(), s.keyWidth)
		n, ok := view.RemoveAndDelete(key, index.BytesComparator)
		_ = g.Release(true)
		fmt.Printf("removed=%v size now %d\n", ok, n)
	case "internallookup":
		id, err := parsePageID(arg(args, 1))
		if err != nil {
			return err
		}
		key, err := s.key(arg(args, 2))
		if err != nil {
			return err
		}
		g, err := s.pool.FetchGuarded(id)
		if err != nil {
			return err
		}
		view := index.NewInternalPageView(g.Bytes(), s.keyWidth)
		child := view.Lookup(key, index.BytesComparator)
		_ = g.Release(false)
		fmt.Printf("child = %d\n", child)
	case "help":
		printHelp()
	case "quit", "exit", "\\q":
		return errQuit
	default:
		fmt.Printf("unknown command: %s (try \\help)\n", args[0])
	}
	return nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

var errQuit = errors.New("quit")

func printHelp() {
	fmt.Println(`commands:
  newpage                                allocate a fresh page
  delete <pageid>                        delete an unpinned page
  flush <pageid>                         flush one dirty page
  flushall                               flush every dirty page
  initleaf <pageid>                      format a page as an empty leaf
  initinternal <pageid> <firstchild>     format a page as an internal node
  leafinsert <pageid> <key> <valpage> <slot>
  leaflookup <pageid> <key>
  leafremove <pageid> <key>
  internallookup <pageid> <key>
  quit | exit                            leave the shell`)
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		dataFile   = flag.String("file", "", "page file path (overrides config)")
		poolSize   = flag.Int("pool-size", 0, "buffer pool frame count (overrides config)")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataFile != "" {
		cfg.Storage.File = *dataFile
	}
	if *poolSize != 0 {
		cfg.Buffer.PoolSize = *poolSize
	}

	slog.SetLogLoggerLevel(parseLevel(cfg.Log.Level))

	sh, err := newShell(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagestore-shell: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sh.close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pagestore> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("pagestore-shell: %s (pool size %d, key width %d)\n", cfg.Storage.File, cfg.Buffer.PoolSize, cfg.Index.KeyWidth)
	fmt.Println("type \\help for commands")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "\\"))
		if line == "" {
			continue
		}
		if err := sh.dispatch(strings.Fields(line)); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
