// Package pkg provides the libraries behind tilesmith, a batch renderer that
// turns recipes of layered SVG fragments into square PNG textures.
//
// # Overview
//
// The pkg directory is organized by stage:
//
//  1. [layers] - Layer store (SVG fragments indexed by relative path)
//  2. [recipe] - Recipe manifests and resolution against the store
//  3. [compose] - Document composition and the single-flight document cache
//  4. [optimize] - SVG canonicalization
//  5. [raster] - Anti-aliased rasterization of optimized documents
//  6. [output] - PNG files and the run log
//  7. [pipeline] - The batch coordinator driving all of the above
//
// Supporting packages: [svgdoc] (SVG element tree, paths, transforms),
// [color], [cache] (persistent document cache backends), [depgraph]
// (recipe/layer sharing graph), [config], [errors], [observability] and
// [buildinfo].
//
// # Architecture
//
// The data flow of one run:
//
//	svg/ + recipes.toml
//	         ↓
//	    [layers] + [recipe] (load, resolve)
//	         ↓
//	    [compose] (one optimized document per fingerprint)
//	         ↓
//	    [raster] (bitmap at N×N)
//	         ↓
//	    [output] (out/NxN/<recipe>.png, log.txt)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	report, err := runner.Run(ctx, pipeline.Options{Resolution: 64})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d ok, %d failed\n", report.Succeeded(), report.Failed())
package pkg
