// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"

	"github.com/ezrec/calos/config"
	"github.com/ezrec/calos/emulator"
	"github.com/ezrec/calos/io"
)

func main() {
	var compile string
	var tape string
	var output string
	var configPath string
	var addr int
	var quantum int
	var delay time.Duration
	var dump bool
	var defines bool
	var verbose bool

	flag.StringVar(&compile, "c", "", "assembly source to compile")
	flag.StringVar(&tape, "t", "", "tape to load")
	flag.StringVar(&output, "o", "", "write the compiled program as a tape, do not execute")
	flag.StringVar(&configPath, "config", "", "machine configuration (TOML)")
	flag.IntVar(&addr, "a", emulator.PROGRAM_BASE, "load and execution address")
	flag.IntVar(&quantum, "q", 0, "timer ticks per process turn (0 for the configured value)")
	flag.DurationVar(&delay, "d", -1, "delay between instructions (negative for the configured value)")
	flag.BoolVar(&dump, "dump", false, "dump the program area after execution")
	flag.BoolVar(&defines, "defines", false, "list the predefined assembler symbols, and exit")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	fs := afero.NewOsFs()

	cfg := config.Default()
	if len(configPath) != 0 {
		var err error
		cfg, err = config.Load(fs, configPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	if quantum > 0 {
		cfg.Quantum = quantum
	}
	if delay >= 0 {
		cfg.SetDelay(delay)
	}
	if verbose {
		cfg.Verbose = true
	}

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		log.Fatal(err)
	}
	emu.Tape.Fs = fs

	if defines {
		for key, value := range emu.Defines() {
			fmt.Printf("%v = %v\n", key, value)
		}
		return
	}

	switch {
	case len(compile) != 0:
		inf, err := fs.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		prog, err := emu.Assemble(inf, addr)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(output) != 0 {
			ouf, err := fs.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			_, err = prog.WriteTo(ouf)
			if err == nil {
				err = ouf.Close()
			}
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		_, err = emu.LoadWords(addr, prog.Words())
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(tape) != 0:
		_, err = emu.Load(tape, addr)
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("%v: one of -c or -t is required", os.Args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	restore := cbreak(cfg.Verbose)
	emu.Keys = io.ReadKeys(ctx, os.Stdin)

	pcb, err := emu.Exec(ctx, addr)

	restore()
	stop()

	if dump {
		dumpErr := emu.Dump(os.Stdout, emulator.PROGRAM_BASE, emulator.PROGRAM_END-1)
		if dumpErr != nil {
			log.Printf("dump: %v", dumpErr)
		}
	}

	if err != nil {
		log.Fatal(err)
	}

	if cfg.Verbose {
		log.Printf("%v", pcb)
	}
}
