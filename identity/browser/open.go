package browser

import (
	"os/exec"
	"runtime"
)

// Opener presents the authorization URL to the user
type Opener interface {
	Open(URL string) error
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(URL string) error

func (f OpenerFunc) Open(URL string) error {
	return f(URL)
}

// SystemOpener opens URLs in the default system browser
type SystemOpener struct{}

func (SystemOpener) Open(URL string) error {
	cmd := command(URL)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func command(URL string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", URL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", URL)
	default:
		return exec.Command("xdg-open", URL)
	}
}
