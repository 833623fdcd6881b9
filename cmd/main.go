package main

import "btc-price-alert/internal/cli"

func main() {
	cli.Execute()
}
