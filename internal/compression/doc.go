// Package compression reduces batches of retrieved web text to a bounded,
// query-relevant knowledge base while keeping the provenance needed to
// reconstruct source text later.
//
// # Strategies
//
// Three interchangeable strategies implement Strategy:
//
//   - ChunkFiltering keeps the ids of chunks the model judges relevant.
//   - FactCentric extracts source-attributed facts and can rebuild the
//     grounding text for any subset of them.
//   - Summarization maintains one running summary, merged per batch.
//
// Chunking strategies route every chunk through the shared chunk-and-store
// helper, so chunk ids (md5(url)[:8]-index) are consistent across strategies.
//
// # Failure policy
//
// Every Process call returns a BatchReport whose Outcome tells apart a batch
// that contributed, one where the model legitimately found nothing, and one
// whose structured response could not be decoded. Malformed responses are a
// soft failure: logged at warn, knowledge base untouched, nil error.
// Completion transport failures return an error wrapping ErrCompletionFailed.
// Construction problems wrap ErrConfig.
//
// # Concurrency
//
// A strategy instance is not safe for concurrent use. Independent instances
// share nothing and may run in parallel.
package compression
