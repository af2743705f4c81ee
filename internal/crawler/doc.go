// Package crawler provides the crawl-and-validate building blocks of a scan.
//
// # Components
//
//   - Frontier: breadth-first visit queue with visited set, depth limit,
//     page budget, same-host restriction and ignore/follow patterns
//   - Validator: decides whether a link target is reachable (HEAD, then a
//     confirming GET when the HEAD answer is not trustworthy)
//   - ImageValidator: confirms images the renderer reported as failed
//   - Aggregator: collects issues and removes duplicates by
//     (resource URL, referring page)
//
// A fresh Frontier and Aggregator are created for every scan. Neither is
// shared between scans, so concurrent scans are isolated by construction.
//
// # Usage
//
//	frontier := crawler.NewFrontier(crawler.WithMaxDepth(3), crawler.WithMaxPages(50))
//	if err := frontier.Seed("https://example.com/"); err != nil {
//	    return err
//	}
//	for {
//	    entry, ok := frontier.Next()
//	    if !ok {
//	        break
//	    }
//	    // render entry.URL, validate its links, offer healthy internal links
//	}
package crawler
