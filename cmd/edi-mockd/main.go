package main

import (
	"flag"

	"github.com/moyoez/edi-client/mockserver"
	"github.com/moyoez/edi-client/tool"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	secret := flag.String("secret", "", "token signing secret (random per run when empty)")
	logMode := flag.String("log", "", "log mode: dev|prod|none")
	flag.Parse()

	tool.InitLogger()
	tool.SetLogMode(*logMode)

	if *secret == "" {
		*secret = tool.GenerateRandomUUID()
	}
	srv := mockserver.New(mockserver.Options{Secret: *secret})
	if err := srv.Run(*addr); err != nil {
		tool.DefaultLogger.Fatalf("mock conversion service stopped: %v", err)
	}
}
