// Package circuits manages the compiled transfer circuit consumed by the
// wallet. The circuit itself is built with circom outside of this module;
// here it is only handled as three artifacts:
//
//	+---------------------+     +-------------+     +-------------+
//	| witness calculator  | --> | proving key | --> |   Groth16   |
//	|       (WASM)        |     |   (zkey)    |     |    proof    |
//	+---------------------+     +-------------+     +------+------+
//	                                                       |
//	                                +----------------------v----+
//	                                | verifying key (JSON),     |
//	                                | checked with circom2gnark |
//	                                +---------------------------+
//
// Artifacts are referenced by a local path or a URL plus an optional
// sha256. Remote artifacts are cached in BaseDir, and downloads resume
// from a partial file when interrupted. The proof itself is generated by
// the prover package.
package circuits
