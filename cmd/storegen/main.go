package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/storedbg/internal/config"
	"github.com/danmuck/storedbg/internal/directory"
	"github.com/danmuck/storedbg/internal/logging"
	"github.com/danmuck/storedbg/internal/store"
)

func main() {
	input := flag.String("input", "", "store description to encode")
	output := flag.String("o", "", "write the binary directory to this path")
	list := flag.Bool("list", false, "print the names reconstructed from the directory")
	skip := flag.Bool("skip", false, "emit skip nodes for shared runs")
	template := flag.String("template", "", "write a config template of this kind (store|host) to -o")
	force := flag.Bool("force", false, "overwrite an existing template")
	flag.Parse()

	logging.ConfigureRuntime()

	if *template != "" {
		if *output == "" {
			log.Fatal().Msg("storegen: -template needs -o")
		}
		if err := config.WriteTemplate(*output, *template, *force); err != nil {
			log.Fatal().Err(err).Msg("storegen: write template")
		}
		log.Info().Str("kind", *template).Str("path", *output).Msg("storegen: wrote template")
		return
	}

	if *input == "" {
		log.Fatal().Msg("storegen: -input is required")
	}
	desc, err := config.LoadStoreDescription(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("storegen: load description")
	}
	s, err := store.Build(desc, store.BuildOptions{Encode: directory.EncodeOptions{Skip: *skip}})
	if err != nil {
		log.Fatal().Err(err).Msg("storegen: build")
	}

	if *output != "" {
		if err := os.WriteFile(*output, s.Directory(), 0o644); err != nil {
			log.Fatal().Err(err).Msg("storegen: write directory")
		}
		log.Info().Str("path", *output).Int("bytes", len(s.Directory())).Msg("storegen: wrote directory")
	} else {
		writeHex(os.Stdout, s.Directory())
	}
	if *list {
		writeListing(os.Stdout, s)
	}
}

// writeHex prints dir as a C-style byte table, 16 bytes per line.
func writeHex(w io.Writer, dir []byte) {
	for i := 0; i < len(dir); i += 16 {
		line := dir[i:min(i+16, len(dir))]
		parts := make([]string, len(line))
		for j, b := range line {
			parts[j] = fmt.Sprintf("0x%02x", b)
		}
		fmt.Fprintf(w, "%s,\n", strings.Join(parts, ", "))
	}
}

// writeListing prints one line per object as the directory encodes it.
func writeListing(w io.Writer, s *store.Store) {
	fmt.Fprintf(w, "# %s: %d bytes buffer, %d bytes directory\n", s.Name(), len(s.Buffer()), len(s.Directory()))
	directory.List(s.Directory(), func(name string, e directory.Entry) {
		where := fmt.Sprintf("offset %d", e.Offset)
		if e.IsFunction() {
			where = fmt.Sprintf("function %d", e.FunctionID())
		}
		size := e.Type.Size()
		if !e.Type.IsFixed() {
			size = e.Len
		}
		fmt.Fprintf(w, "%-24s %-10s %4d  %s\n", name, e.Type, size, where)
	})
}
