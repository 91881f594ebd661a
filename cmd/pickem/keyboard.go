package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abrezinsky/pickem/internal/browser"
	"github.com/abrezinsky/pickem/internal/logger"
)

// shortcuts are the actions bound to console keys
type shortcuts struct {
	adminURL string
	log      *logger.SlogLogger
	rescore  func()
	quit     func()
	open     func(string) error
}

// handle runs the action for key and reports whether the listener should stop
func (s *shortcuts) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "a":
		open := s.open
		if open == nil {
			open = browser.Open
		}
		fmt.Printf("%sOpening admin API in browser...%s\n", cyan, reset)
		if err := open(s.adminURL); err != nil {
			fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if s.log.IsHTTPLoggingEnabled() {
			s.log.DisableHTTPLogging()
			fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			s.log.EnableHTTPLogging()
			fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		cycleLogLevel(s.log)
	case "r":
		fmt.Printf("%sRescoring all rounds...%s\n", cyan, reset)
		go s.rescore()
	case "?":
		printKeyboardHelp()
	case "q", "\x03": // Ctrl+C arrives as a byte in raw mode
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		s.quit()
		return true
	}
	return false
}

// listenForKeyboard reads single key presses until quit or ctx is done
func listenForKeyboard(ctx context.Context, s *shortcuts) {
	restore, ok := makeRaw(int(os.Stdin.Fd()))
	if !ok {
		// Not a terminal
		return
	}
	defer restore()
	readKeys(ctx, os.Stdin, s)
}

func readKeys(ctx context.Context, r io.Reader, s *shortcuts) {
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if err == io.EOF {
			return
		}
		if err != nil || n == 0 {
			continue
		}
		if s.handle(buf[0]) {
			return
		}
	}
}
