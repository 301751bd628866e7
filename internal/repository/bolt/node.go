package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// NodeRepository is the bolt-backed namespace store. Nodes are kept as JSON
// values keyed by id; lookups by parent or path scan the bucket, which is
// adequate for the embedded deployment sizes this store targets.
type NodeRepository struct {
	store *Store
}

// NewNodeRepository creates a bolt node repository.
func NewNodeRepository(store *Store) repositories.NodeRepository {
	return &NodeRepository{store: store}
}

func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		if err := checkPathFree(b, node.Path, node.ID); err != nil {
			return err
		}
		return putNode(b, node)
	})
}

// checkPathFree enforces the path uniqueness constraint the SQL schema
// carries. selfID exempts the node being written.
func checkPathFree(b *bbolt.Bucket, path, selfID string) error {
	var conflict bool
	err := b.ForEach(func(_, v []byte) error {
		var existing models.Node
		if err := json.Unmarshal(v, &existing); err != nil {
			return err
		}
		if existing.Path == path && existing.ID != selfID {
			conflict = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan nodes: %w", err)
	}
	if conflict {
		return fmt.Errorf("node %q: %w", path, domain.ErrConflict)
	}
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	var node *models.Node
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketNodes).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		node = &models.Node{}
		return json.Unmarshal(data, node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// GetByIDForUpdate reads the node inside the caller's transaction. Bolt has a
// single writer, so holding the write transaction is already an exclusive
// lock; no extra row locking is needed.
func (r *NodeRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Node, error) {
	return r.GetByID(ctx, id)
}

func (r *NodeRepository) GetChildByName(ctx context.Context, parentID *string, name string) (*models.Node, error) {
	var found *models.Node
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(_, v []byte) error {
			var node models.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			if node.Name == name && sameParent(node.ParentID, parentID) {
				found = &node
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("child %q: %w", name, domain.ErrNotFound)
	}
	return found, nil
}

func (r *NodeRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	nodes, err := r.scan(ctx, func(n *models.Node) bool {
		return sameParent(n.ParentID, parentID)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

func (r *NodeRepository) ListSubtree(ctx context.Context, path string) ([]models.Node, error) {
	prefix := path + "/"
	nodes, err := r.scan(ctx, func(n *models.Node) bool {
		return n.Path == path || strings.HasPrefix(n.Path, prefix)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

func (r *NodeRepository) ListAll(ctx context.Context) ([]models.Node, error) {
	nodes, err := r.scan(ctx, func(*models.Node) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

func (r *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		if b.Get([]byte(node.ID)) == nil {
			return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
		}
		if err := checkPathFree(b, node.Path, node.ID); err != nil {
			return err
		}
		return putNode(b, node)
	})
}

func (r *NodeRepository) UpdateWordCount(ctx context.Context, id string, words int) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		var node models.Node
		if err := json.Unmarshal(data, &node); err != nil {
			return err
		}
		node.WordCount = words
		return putNode(b, &node)
	})
}

func (r *NodeRepository) Delete(ctx context.Context, ids []string) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return fmt.Errorf("delete node %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *NodeRepository) scan(ctx context.Context, keep func(*models.Node) bool) ([]models.Node, error) {
	var nodes []models.Node
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(_, v []byte) error {
			var node models.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			if keep(&node) {
				nodes = append(nodes, node)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	return nodes, nil
}

func putNode(b *bbolt.Bucket, node *models.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	if err := b.Put([]byte(node.ID), data); err != nil {
		return fmt.Errorf("store node: %w", err)
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
