package main

import (
	"context"
	"fmt"
	"os"

	"pharma-radar/bootstrap"
)

func main() {
	ctx := context.Background()

	if err := bootstrap.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pharma-radar failed to start: %v\n", err)
		os.Exit(1)
	}
}
