package main

import "github.com/frahmantamala/staffdesk/cmd"

func main() {
	cmd.Execute()
}
