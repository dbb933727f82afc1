package main

import (
	"log"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// cbreak turns off line buffering and echo on a terminal stdin, so
// each key reaches the keyboard controller as it is typed. The
// returned function restores the terminal.
func cbreak(verbose bool) (restore func()) {
	restore = func() {}

	fd := os.Stdin.Fd()
	if !term.IsTerminal(int(fd)) {
		return
	}

	var original unix.Termios
	err := termios.Tcgetattr(fd, &original)
	if err != nil {
		log.Printf("terminal: %v", err)
		return
	}

	raw := original
	raw.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(fd, termios.TCSANOW, &raw)
	if err != nil {
		log.Printf("terminal: %v", err)
		return
	}

	if verbose {
		log.Printf("terminal: cbreak mode")
	}

	restore = func() {
		err := termios.Tcsetattr(fd, termios.TCSANOW, &original)
		if err != nil {
			log.Printf("terminal: restore: %v", err)
		}
	}
	return
}
