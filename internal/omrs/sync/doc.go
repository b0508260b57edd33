// Package sync translates between the relational dictionary and the
// interchange records.
//
// # Export
//
// The Exporter reads concepts from the store and renders each one as a
// concept record plus the mapping records of its reference maps, its Q&A
// answers and its set members:
//
//	store ─► Exporter ─► classify.Classifier ─► concept + mapping records
//
// # Import
//
// The Importer runs in two phases. Phase one materializes every concept
// record (find-or-create) and registers its interchange id with a
// resolver.Resolver. Phase two processes every mapping record; both ends of
// a mapping are resolved through the now complete resolver, so a mapping
// may point at a concept that appears later in the concept file.
//
//	concept records ─► Importer ─► upsert.Engine ─► store
//	                        │
//	                        └─► resolver.Resolver ◄─ mapping records
//
// Running the same import twice creates nothing the second time.
//
// # Usage
//
//	store, _ := db.Open(db.DriverSQLite, "dictionary.db")
//	engine := upsert.New(store)
//	classifier := &classify.Classifier{OrgID: "MyOrg", SourceID: "MySrc", Directory: directory.Default()}
//
//	im := sync.NewImporter(store, engine, classifier, nil)
//	res, err := im.Import(ctx, concepts, mappings)
package sync
