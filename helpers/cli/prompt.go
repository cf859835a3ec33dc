package cli

import (
	"bytes"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// Interactive loop when stdin is a terminal, batch mode otherwise.
func MainLoop(tag string, execLine func(line string), complete func(d prompt.Document) []prompt.Suggest) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		for range signalCh {
			os.Exit(0)
		}
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(execLine, complete, prompt.OptionPrefix(tag+"> ")).Run()
		// go-prompt leaves the terminal in raw mode on exit
		rawModeOff := exec.Command("/bin/stty", "-raw", "echo")
		rawModeOff.Stdin = os.Stdin
		_ = rawModeOff.Run()
		_ = rawModeOff.Wait()
	} else {
		stdinAll, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal(err)
		}
		linesb := bytes.Split(stdinAll, []byte{'\n'})
		for _, lineb := range linesb {
			line := string(bytes.TrimSpace(lineb))
			if line != "" {
				execLine(line)
			}
		}
	}
}
