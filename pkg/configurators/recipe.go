package configurators

import (
	"context"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Recipe configures the Broccoli recipe app's database.
type Recipe struct {
	rng *sample.Provider
}

func (c *Recipe) Domain() spec.Domain { return spec.DomainRecipe }

func (c *Recipe) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgBroccoli); err != nil {
		return err
	}
	// The app creates its database on first launch.
	return warmApp(ctx, dev, pkgBroccoli)
}

func (c *Recipe) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.RecipeSpec)
	o := engine.NewOutcome(spec.DomainRecipe)

	if s.ClearRecipes {
		if err := clearTable(ctx, dev, recipeDBPath, recipeTable); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, r := range s.AddRecipes {
		o.ItemsTotal++
		if err := c.insertRecipe(ctx, dev, r); err != nil {
			o.RecordError("add_recipe", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomRecipes {
		for i := 0; i < s.RecipeCount(); i++ {
			o.ItemsTotal++
			if err := c.insertRandomRecipe(ctx, dev); err != nil {
				o.RecordError("add_random_recipe", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Recipe) insertRecipe(ctx context.Context, dev device.Controller, r spec.RecipeRecord) error {
	favorite := int64(0)
	if r.Favorite {
		favorite = 1
	}
	return insertRow(ctx, dev, recipeDBPath, recipeTable,
		[]string{"title", "description", "source", "servings", "ingredients", "directions", "favorite"},
		[]string{
			sqlString(r.Title),
			sqlString(r.Description),
			sqlString(r.Source),
			sqlString(r.Servings),
			sqlString(r.Ingredients),
			sqlString(r.Directions),
			sqlInt(favorite),
		})
}

func (c *Recipe) insertRandomRecipe(ctx context.Context, dev device.Controller) error {
	r := c.rng.Recipe()
	favorite := int64(0)
	if c.rng.Chance(50) {
		favorite = 1
	}
	return insertRow(ctx, dev, recipeDBPath, recipeTable,
		[]string{"title", "description", "servings", "preparationTime", "ingredients", "directions", "favorite"},
		[]string{
			sqlString(r.Title),
			sqlString(r.Description),
			sqlString(r.Servings),
			sqlString(r.PrepTime),
			sqlString(r.Ingredients),
			sqlString(r.Directions),
			sqlInt(favorite),
		})
}
