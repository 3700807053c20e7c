// Package runtime wires storage, configuration and the chunk, task and queue
// services into a single node. Backends for task metadata (embedded, redis,
// http) and for chunk delivery (embedded, amqp) are picked from config.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(context.Background(), runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	resp, _ := rt.Chunks().Upload(ctx, req)
package runtime
