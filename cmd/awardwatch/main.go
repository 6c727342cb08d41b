package main

import (
	"awardwatch-backend/cmd/awardwatch/commands"
	"awardwatch-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
