package routes

import (
	"bytes"
	"strconv"

	"btreestore/config"
	"btreestore/database"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type createStoreBody struct {
	Name      string `json:"name"`
	Branching uint16 `json:"branching"`
	Workers   uint8  `json:"workers"`
}

type insertBody struct {
	Key       *uint32   `json:"key"`
	Data      string    `json:"data"`
	CryptoKey [4]uint32 `json:"cryptoKey"`
	Nonce     uint64    `json:"nonce"`
}

// status maps store errors onto HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, database.ErrStoreNotFound), errors.Is(err, database.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, database.ErrStoreExists), errors.Is(err, database.ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, database.ErrInvalidConfiguration), errors.Is(err, database.ErrBufferTooSmall):
		return fiber.StatusBadRequest
	case errors.Is(err, database.ErrOutOfMemory):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, database.ErrClosed):
		return fiber.StatusGone
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(status(err)).JSON(fiber.Map{"error": err.Error()})
}

func keyParam(c *fiber.Ctx) (uint32, error) {
	k, err := strconv.ParseUint(c.Params("key"), 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid key %q", c.Params("key"))
	}
	return uint32(k), nil
}

func SetupRoutes(router fiber.Router, db *database.Database) {
	router.Get("/stores", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"stores": db.ListStores()})
	})

	router.Post("/stores", func(c *fiber.Ctx) error {
		var body createStoreBody
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
		if body.Branching == 0 {
			body.Branching = config.DefaultBranching
		}
		if body.Workers == 0 {
			body.Workers = config.DefaultWorkers
		}

		name, err := db.CreateStore(body.Name, body.Branching, body.Workers)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "created", "name": name})
	})

	router.Delete("/stores/:id", func(c *fiber.Ctx) error {
		if err := db.DropStore(c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": "dropped"})
	})

	router.Get("/stores/:id/nodes", func(c *fiber.Ctx) error {
		var nodes []database.NodeSnapshot
		err := db.WithStore(c.Params("id"), func(s *database.Store) error {
			var err error
			nodes, err = s.Export()
			return err
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"count": len(nodes), "nodes": nodes})
	})

	router.Get("/stores/:id/tree", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		err := db.WithStore(c.Params("id"), func(s *database.Store) error {
			return s.Display(&buf)
		})
		if err != nil {
			return fail(c, err)
		}
		return c.SendString(buf.String())
	})

	router.Post("/stores/:id/entries", func(c *fiber.Ctx) error {
		var body insertBody
		if err := c.BodyParser(&body); err != nil || body.Key == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key and data required"})
		}

		err := db.WithStore(c.Params("id"), func(s *database.Store) error {
			return s.Insert(*body.Key, []byte(body.Data), body.CryptoKey, body.Nonce)
		})
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "inserted", "key": *body.Key})
	})

	router.Get("/stores/:id/entries/:key", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		var info database.EntryInfo
		err = db.WithStore(c.Params("id"), func(s *database.Store) error {
			found, err := s.Retrieve(key)
			if err != nil {
				return err
			}
			// the store keeps ownership of its buffer
			info = *found
			info.Data = append([]byte(nil), found.Data...)
			return nil
		})
		if err != nil {
			return fail(c, err)
		}

		// []byte fields encode as base64
		return c.JSON(fiber.Map{
			"key":        key,
			"size":       info.Size,
			"cryptoKey":  info.CryptoKey,
			"nonce":      info.Nonce,
			"ciphertext": info.Data,
		})
	})

	router.Get("/stores/:id/entries/:key/plaintext", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		var plain []byte
		err = db.WithStore(c.Params("id"), func(s *database.Store) error {
			plain, err = s.Plaintext(key)
			return err
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"key": key, "data": string(plain)})
	})

	router.Delete("/stores/:id/entries/:key", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		err = db.WithStore(c.Params("id"), func(s *database.Store) error {
			return s.Delete(key)
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": "deleted", "key": key})
	})
}
