package console

import (
	"bufio"
	"context"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
)

// Run parses args and signs in either through the browser or with email and password
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	service, err := New(ctx, options, os.Stdout)
	if err != nil {
		return err
	}
	defer service.Close()

	if options.Email != "" {
		return service.Login(ctx, options.Email, options.Password)
	}
	return service.SignIn(ctx, focusEvents(ctx))
}

// focusEvents reports a focus event for every line read from stdin; pressing
// Enter tells the controller the user is back at the terminal.
func focusEvents(ctx context.Context) <-chan struct{} {
	ret := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case ret <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ret
}
