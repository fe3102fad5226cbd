package main

import (
	"github.com/andikarp/keranjang/cmd"
)

func main() {
	cmd.Start()
}
