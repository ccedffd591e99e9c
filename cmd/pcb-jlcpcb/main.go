package main

import "github.com/valtyr/pcb-jlcpcb/cmd/pcb-jlcpcb/cmd"

func main() {
	cmd.Execute()
}
