// Package evidex answers questions over a fixed corpus of historical documents
// with a hybrid retrieval pipeline.
//
// A query runs through weighted keyword search and embedding-based semantic
// search in parallel. Hits are deduplicated by document, reranked by a hosted
// cross-encoder and formatted as an evidence block for answer synthesis.
//
// # Retrieval with an explicit keyword profile
//
//	client, _ := evidex.New(
//	    evidex.WithCorpusFiles("data/documents.json", "data/terms.json"),
//	    evidex.WithOpenAIEmbeddings(os.Getenv("OPENAI_API_KEY"), "", "text-embedding-ada-002", 0),
//	    evidex.WithCohereReranker(os.Getenv("COHERE_API_KEY"), "rerank-english-v2.0"),
//	)
//	defer client.Close()
//
//	report, _ := client.Search(ctx, "Why did Lincoln issue the proclamation?", evidex.Profile{
//	    Keywords: []evidex.Keyword{{Term: "emancipation", Weight: 8}, {Term: "union", Weight: 4}},
//	    Years:    []string{"1862", "1863"},
//	})
//	fmt.Println(report.Evidence)
//
// # Question answering
//
// With a chat model configured, Ask extracts the keyword profile itself and
// synthesizes an answer from the reranked evidence:
//
//	client, _ := evidex.New(
//	    evidex.WithCorpusFiles("data/documents.json", "data/terms.json"),
//	    evidex.WithOpenAIEmbeddings(key, "", "text-embedding-ada-002", 0),
//	    evidex.WithCohereReranker(cohereKey, "rerank-english-v2.0"),
//	    evidex.WithLanguageModel(key, "", "gpt-4o-mini", "gpt-4o"),
//	)
//	answer, _ := client.Ask(ctx, "How did Lincoln justify the suspension of habeas corpus?")
package evidex
