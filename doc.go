// rdk is the Report Development Kit: the data core of a sales reporting
// dashboard. It loads tabular data from somewhere, derives a family of
// named views from it, and hands finished tables to whatever draws the
// charts. The pieces, in pipeline order:
//
// 1. Ingestor
//
//    An rdk.Ingestor turns a source identifier into a Dataset. Your data
//    is everywhere - CSV files, S3 buckets, JSON dumps, SQL databases,
//    parquet exports, hard-coded in tests - and each sub-package (csv,
//    json, sqldb, parquet, s3, fake) knows how to get one kind out. All
//    of them hide behind the same one-method interface, so swapping the
//    loader never touches the rest of the system. An IngestContext holds
//    whichever one is current.
//
// 2. Dataset
//
//    The common currency. An in-memory table of named, typed columns
//    (float, string, time) of equal length. Missing values ride along
//    in-band: NaN, "", the zero time. Datasets are immutable once built -
//    every transform returns a fresh one, so no transform can spoil the
//    input for the next.
//
// 3. Processor
//
//    A pure Dataset -> Dataset transform. The built-in strategies cover
//    the dashboard's views: sales trend by month, profit and sales by
//    country, product performance, the discount projection, monthly and
//    best-seller breakdowns, and a pairwise-complete correlation matrix
//    over the numeric measures. A ProcessContext holds whichever one is
//    current, and ProcessorFunc adapts a bare function.
//
// 4. Session
//
//    One Session per process: it ingests once, computes every registered
//    view eagerly, and keeps each view's dataset (or its error) for the
//    lifetime of the process. The table-state + line-series machinery in
//    view.go recomputes the dynamic chart from whatever rows the table is
//    currently displaying.
//
// The web and report packages are thin shells over a Session; the core
// itself never opens a listener or writes a file.

package rdk
