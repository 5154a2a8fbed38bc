package main

import "github.com/andresmejia3/lnl-frame-selector/cmd"

func main() {
	cmd.Execute()
}
