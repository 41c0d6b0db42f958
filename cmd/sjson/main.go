// Package main provides sjson, a batch and interactive editor for JSON
// documents that defers writes through the write-back buffer: many edits
// across many files hit the filesystem once, and every conflicting external
// modification is reported instead of silently overwritten.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/srinathkp/signac/pkg/buffer"
	"github.com/srinathkp/signac/pkg/synced"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errConflicts = errors.New("one or more files were not flushed")

func run(args []string) error {
	flags := flag.NewFlagSet("sjson", flag.ContinueOnError)
	flags.Usage = func() { printUsage(flags) }

	sets := flags.StringArray("set", nil, "set key=value (value parsed as JSON, else string); repeatable")
	unsets := flags.StringArray("unset", nil, "delete key; repeatable")
	gets := flags.StringArray("get", nil, "print key after edits; repeatable")
	force := flags.Bool("force", false, "skip the conflict check; buffered state always wins")
	interactive := flags.BoolP("interactive", "i", false, "edit a single file in a REPL")

	err := flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	files := flags.Args()
	if len(files) == 0 {
		printUsage(flags)

		return errors.New("no files given")
	}

	var opts []buffer.Option
	if *force {
		opts = append(opts, buffer.WithForceWrite())
	}

	backend := buffer.NewBackend(opts...)

	if *interactive {
		if len(files) != 1 {
			return errors.New("interactive mode takes exactly one file")
		}

		repl := &repl{doc: synced.NewJSONDoc(files[0], backend)}

		return repl.run()
	}

	return runBatch(backend, files, *sets, *unsets, *gets)
}

func printUsage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: sjson [flags] <file.json>...\n\n")
	fmt.Fprintf(os.Stderr, "Edits are applied to every file, buffered, and flushed once.\n\n")
	fmt.Fprintln(os.Stderr, "Flags:")
	flags.PrintDefaults()
}

// runBatch applies every edit to every file inside one buffered scope, then
// flushes. Per-file failures are reported together; partial success is
// normal (the untouched files are still written).
func runBatch(backend *buffer.Backend, files, sets, unsets, gets []string) error {
	docs := make([]*synced.JSONDoc, 0, len(files))
	for _, f := range files {
		docs = append(docs, synced.NewJSONDoc(f, backend))
	}

	issues, err := synced.Buffered(backend, docs, func() error {
		for _, d := range docs {
			applyErr := applyEdits(d, sets, unsets)
			if applyErr != nil {
				return applyErr
			}
		}

		for _, key := range gets {
			for _, d := range docs {
				v, ok, getErr := d.Get(key)
				if getErr != nil {
					return getErr
				}

				if ok {
					fmt.Printf("%s: %s = %s\n", d.Path(), key, renderValue(v))
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if len(issues) > 0 {
		paths := make([]string, 0, len(issues))
		for p := range issues {
			paths = append(paths, p)
		}

		sort.Strings(paths)

		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "conflict: %v\n", issues[p])
		}

		return errConflicts
	}

	return nil
}

func applyEdits(d *synced.JSONDoc, sets, unsets []string) error {
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: want key=value", kv)
		}

		err := d.Set(key, parseValue(raw))
		if err != nil {
			return err
		}
	}

	for _, key := range unsets {
		err := d.Delete(key)
		if err != nil {
			return err
		}
	}

	return nil
}

// parseValue interprets raw as JSON where possible, so --set n=3 stores a
// number and --set ok=true a bool; anything unparseable is a plain string.
func parseValue(raw string) any {
	var v any

	err := json.Unmarshal([]byte(raw), &v)
	if err != nil {
		return raw
	}

	return v
}

func renderValue(v any) string {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(blob)
}

// repl is the interactive editing loop: the document stays buffered for the
// whole session and flushes when the session ends.
type repl struct {
	doc   *synced.JSONDoc
	liner *liner.State
}

var replCommands = []string{"get", "set", "del", "keys", "show", "flush", "help", "quit"}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".sjson_history")
}

func (r *repl) run() error {
	enterErr := r.doc.EnterBuffered()
	if enterErr != nil {
		return enterErr
	}

	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(func(line string) []string {
		var out []string

		for _, c := range replCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c+" ")
			}
		}

		return out
	})

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("sjson - buffered editing of %s (writes deferred until exit)\n", r.doc.Path())
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("sjson> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		if r.dispatch(line) {
			break
		}
	}

	r.saveHistory()

	return r.finish()
}

// dispatch handles one command line, reporting whether the session is over.
func (r *repl) dispatch(line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		r.printHelp()

	case "get":
		r.cmdGet(args)

	case "set":
		r.cmdSet(args)

	case "del", "delete":
		r.cmdDel(args)

	case "keys":
		r.cmdKeys()

	case "show":
		r.cmdShow()

	case "flush":
		r.cmdFlush()

	default:
		fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

// finish closes the buffered scope; the flush it triggers is where a
// conflict with an external editor surfaces.
func (r *repl) finish() error {
	err := r.doc.ExitBuffered()
	if err != nil {
		return fmt.Errorf("flushing %s: %w", r.doc.Path(), err)
	}

	return nil
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  get <key>          Print the value stored under key")
	fmt.Println("  set <key> <value>  Store value (parsed as JSON, else string)")
	fmt.Println("  del <key>          Delete key")
	fmt.Println("  keys               List keys")
	fmt.Println("  show               Print the whole document")
	fmt.Println("  flush              Write buffered state through now")
	fmt.Println("  quit               Flush and exit")
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	v, ok, err := r.doc.Get(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if !ok {
		fmt.Printf("(no key %q)\n", args[0])

		return
	}

	fmt.Println(renderValue(v))
}

func (r *repl) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: set <key> <value>")

		return
	}

	err := r.doc.Set(args[0], parseValue(strings.Join(args[1:], " ")))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (r *repl) cmdDel(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	err := r.doc.Delete(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func (r *repl) cmdKeys() {
	keys, err := r.doc.Keys()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	for _, k := range keys {
		fmt.Println(k)
	}
}

func (r *repl) cmdShow() {
	data, err := r.doc.Data()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println(string(blob))
}

// cmdFlush writes buffered state through without ending the session. A
// conflict leaves the buffer intact so the session keeps its edits.
func (r *repl) cmdFlush() {
	err := r.doc.ExitBuffered()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}

	enterErr := r.doc.EnterBuffered()
	if enterErr != nil {
		fmt.Printf("Error: %v\n", enterErr)
	}
}
