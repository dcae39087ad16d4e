package main

import (
	"context"
	"time"

	"midirouter-go/bus"
	"midirouter-go/platform"
	"midirouter-go/services/config"
	"midirouter-go/services/console"
	"midirouter-go/services/router"
	"midirouter-go/services/statusled"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.Background()
	b := bus.NewBus(8)
	conn := b.NewConnection("main")

	device := platform.DefaultDevice()
	if err := config.NewConfigService().Publish(context.WithValue(ctx, config.CtxDeviceKey, device), conn); err != nil {
		halt("config", err)
	}

	board, err := platform.Setup(ctx, conn, platform.WithDevice(device))
	if err != nil {
		halt("platform", err)
	}

	wctx, cancel := context.WithTimeout(ctx, time.Second)
	cfg, err := router.AwaitConfig(wctx, conn)
	cancel()
	if err != nil {
		halt("router", err)
	}
	soft, hard, err := router.OpenPorts(cfg)
	if err != nil {
		router.PublishFailure(conn, err)
		halt("router", err)
	}

	led := statusled.New(board.LED)
	led.Attach(conn)

	svc, err := router.New(cfg, board.USB, soft, hard, router.WithConn(conn), router.WithTask(led.Task))
	if err != nil {
		router.PublishFailure(conn, err)
		halt("router", err)
	}

	con := console.New(board.Console, svc)
	con.Attach(conn)
	svc.AddTask(con.Task)
	con.Welcome()

	svc.Run(ctx)
}

// halt parks the firmware after a boot failure, repeating the reason so a
// late serial monitor still sees it.
func halt(tag string, err error) {
	for {
		println("["+tag+"] error:", err.Error())
		time.Sleep(5 * time.Second)
	}
}
