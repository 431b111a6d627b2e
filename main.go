package main

import "github.com/mohammad-safakhou/careerdesk/cmd"

func main() {
	cmd.Execute()
}
