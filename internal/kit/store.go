package kit

import (
	"context"
	"fmt"

	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/filestore"
)

// ObjectSource is the part of filestore.Store kit loading needs.
type ObjectSource interface {
	ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (filestore.Object, error)
}

// LoadFromStore reads every .yaml/.yml object under prefix in bucket and
// returns the kits they define, in listing order. A kit name defined by two
// objects is an error.
func LoadFromStore(ctx context.Context, src ObjectSource, bucket, prefix string) ([]Kit, error) {
	objs, err := src.ListObjects(ctx, bucket, filestore.ListOptions{Prefix: prefix, Recursive: true})
	if err != nil {
		return nil, err
	}

	var kits []Kit
	seen := make(map[string]string)
	for _, info := range objs {
		if !info.HasExt(".yaml", ".yml") {
			continue
		}
		loaded, err := loadObject(ctx, src, bucket, info.Key)
		if err != nil {
			return nil, err
		}
		for _, k := range loaded {
			if prev, dup := seen[k.Name]; dup {
				return nil, errs.Newf(errs.ErrKindConflict,
					"kit %q defined in both %s and %s", k.Name, prev, info.Key)
			}
			seen[k.Name] = info.Key
			kits = append(kits, k)
		}
	}
	return kits, nil
}

func loadObject(ctx context.Context, src ObjectSource, bucket, key string) ([]Kit, error) {
	obj, err := src.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	kits, err := LoadYAML(obj)
	if err != nil {
		return nil, errs.Wrap(errs.KindOf(err), fmt.Sprintf("object %s", key), err)
	}
	return kits, nil
}
