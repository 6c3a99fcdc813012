// Command spigen generates service-provider builders and manifests for Go packages.
//
// A contract is an interface marked //spi:contract. An implementation is a
// type marked //spi:implementation. spigen pairs them at build time so the
// runtime registry (package spi) can locate implementations without
// reflection or scanning:
//
//   - every implementation gets a generated builder (english_greeter_spi.gen.go
//     for EnglishGreeter) that constructs it and registers itself with the
//     runtime
//   - every package declaring contracts gets spi_contracts.gen.go, which
//     records each contract's policy
//   - every contract gets a manifest under <out>/spi/<contract> listing the
//     builders that implement it
//
// Markers
//
//	//spi:contract [single|multiple]     on an interface (default multiple)
//	//spi:implementation [Contract...]   on a defined type
//	//spi:factory [TypeName]             on a function returning the implementation
//
// An implementation provides the contracts named in its marker and those it
// is asserted against (var _ greet.Greeter = (*T)(nil)). When it declares
// none it is bound to every visible contract with methods that it satisfies.
// Contracts cannot live in package main.
//
// An implementation must be exported. A struct without a factory is built
// with its zero value; any other type needs exactly one factory with no
// parameters. A single contract may have at most one implementation.
// When any implementation is invalid nothing is written and spigen exits 1.
//
// Manifests are merged: existing entries are kept, new entries are added and
// an unchanged manifest is not rewritten. Entries for removed implementations
// are not pruned; delete the manifest to rebuild it from scratch.
//
// Usage
//
//	spigen generate [packages]          one round, default "."
//	spigen watch [packages]             regenerate on change
//	spigen manifests [--format yaml]    print merged manifests
//
// Configuration
//
// Settings come from, in increasing precedence: built-in defaults,
// .spigen.yaml in the working directory (or --config), SPIGEN_* environment
// variables and flags.
//
//	dir: ./internal          # --dir, SPIGEN_DIR
//	out: .                   # --out, SPIGEN_OUT (default: module root)
//	tags: [integration]      # --tags, SPIGEN_TAGS
//	log:
//	  level: info            # --log-level, SPIGEN_LOG_LEVEL
//	  format: text           # --log-format, SPIGEN_LOG_FORMAT
//	watch:
//	  debounce: 300ms        # --debounce, SPIGEN_WATCH_DEBOUNCE
//
// Exit codes: 0 success, 1 generation failed, 2 usage or configuration error.
package main
