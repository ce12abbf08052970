package main

import "github.com/opspanel/panelapi/cmd"

func main() {
	cmd.Execute()
}
