// Package minio stores external chunks in MinIO or any other S3-compatible
// service reachable through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "columns", "events/")
//	col, err := colstore.Open(ctx, path, dtype.Int64Type, colstore.ModeReadWrite,
//	    colstore.WithExternalStore(store, colstore.ExternalAbove(4<<20)))
package minio
