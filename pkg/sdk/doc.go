// Package agentrag is the embedded SDK: it wires the vector index,
// ingestion, and the retrieval-synthesis pipeline in-process, without the
// HTTP server. Intended for Go programs that want collection-scoped
// question answering over their own document trees.
//
//	client, err := agentrag.New(ctx,
//		agentrag.WithRedis([]string{"localhost:6379"}, ""),
//		agentrag.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	report, err := client.Ingest(ctx, "./docs")
//	answer, err := client.Ask(ctx, "books", "what is servant leadership?")
package agentrag
