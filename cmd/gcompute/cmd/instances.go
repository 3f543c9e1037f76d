package cmd

import (
	"context"
	"net"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// External address choices of addinstance.
const (
	externalIPEphemeral = "ephemeral"
	externalIPNone      = "none"
)

const (
	collectionNetworks = "networks"
	diskModeReadWrite  = "READ_WRITE"
	diskModeReadOnly   = "READ_ONLY"
)

// instanceFlags are the flags of addinstance.
type instanceFlags struct {
	machineType string
	image       string
	kernel      string
	disks       []string
	network     string
	externalIP  string
	description string
	tags        []string
	metadata    []string
}

func instanceCmds(a *app) []*cobra.Command {
	get := a.newVerb("getinstance <instance-name>", "Get an instance", cobra.ExactArgs(1), command.Spec{
		Name:       "getinstance",
		Collection: compute.CollectionInstances,
		Resource:   instanceResource,
		Handler:    getHandler(perZonePath(compute.CollectionInstances)),
	})
	a.addZoneFlag(get)

	list := a.newListVerb("listinstances", "List the instances of the project", command.Spec{
		Name:       "listinstances",
		Collection: compute.CollectionInstances,
		Resource:   instanceResource,
		Handler:    command.ListHandler(compute.CollectionInstances, command.ScopeZone, &a.list),
	}, true)

	add := a.newVerb("addinstance <instance-name>...", "Create one or more instances", cobra.MinimumNArgs(1), command.Spec{
		Name:       "addinstance",
		Collection: compute.CollectionInstances,
		Resource:   instanceResource,
		Handler:    a.addInstances,
	})
	a.addZoneFlag(add)
	f := add.Flags()
	f.StringVar(&a.instance.machineType, "machine_type", "", "The machine type of the instances")
	f.StringVar(&a.instance.image, "image", "", "The image to boot from")
	f.StringVar(&a.instance.kernel, "kernel", "", "The kernel to boot")
	f.StringArrayVar(&a.instance.disks, "disk", nil, "A persistent disk to attach as name[,deviceName[,mode]] where mode is READ_WRITE or READ_ONLY. Repeatable")
	f.StringVar(&a.instance.network, "network", "default", "The network to connect the instances to")
	f.StringVar(&a.instance.externalIP, "external_ip_address", externalIPEphemeral, "The external IP: ephemeral, none or a reserved address")
	f.StringVar(&a.instance.description, "description", "", "An optional description")
	f.StringSliceVar(&a.instance.tags, "tags", nil, "Comma separated tags")
	f.StringArrayVar(&a.instance.metadata, "metadata", nil, "Metadata entry as key:value. Repeatable")

	del := a.newVerb("deleteinstance <instance-name>...", "Delete one or more instances", cobra.MinimumNArgs(1), command.Spec{
		Name:         "deleteinstance",
		Collection:   compute.CollectionInstances,
		SafetyPrompt: "Delete instance",
		Resource:     instanceResource,
		Handler:      deleteHandler(compute.CollectionInstances, perZonePath(compute.CollectionInstances)),
	})
	a.addZoneFlag(del)
	a.addForceFlag(del)

	return []*cobra.Command{get, list, add, del}
}

// addInstances creates one instance per argument with the same settings.
// Missing zone, machine type and image are asked for. A kernel is asked for
// along with the image unless --kernel is set.
func (a *app) addInstances(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	flags := a.instance
	if !isNamedAddress(flags.externalIP) && len(args) > 1 {
		return nil, command.Errorf("A static external IP address can only be assigned to one instance.")
	}

	zone, err := inv.ResolveZone(ctx, inv.Zone)
	if err != nil {
		return nil, err
	}

	machineType := flags.machineType
	if machineType == "" {
		chosen, err := inv.PromptForMachineType(ctx)
		if err != nil {
			return nil, err
		}
		if chosen == nil {
			return nil, command.Errorf("No machine types are available to project %s.", inv.Project())
		}
		machineType = chosen.Name()
	}

	image, kernel := flags.image, flags.kernel
	if image == "" {
		chosen, err := inv.PromptForImage(ctx)
		if err != nil {
			return nil, err
		}
		if chosen == nil {
			return nil, command.Errorf("No images are available to project %s.", inv.Project())
		}
		image = chosen.SelfLink()

		if kernel == "" {
			chosenKernel, err := inv.PromptForKernel(ctx)
			if err != nil {
				return nil, err
			}
			if chosenKernel != nil {
				kernel = chosenKernel.SelfLink()
			}
		}
	}

	template, err := a.instanceTemplate(inv, zone, machineType, image, kernel)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("Creating instances",
		zap.String(logging.FieldZone, zone),
		zap.Strings("instances", args),
	)

	path := inv.Client.CollectionPath(zone, compute.CollectionInstances)
	requests := make([]batch.Request, 0, len(args))
	for _, name := range args {
		body := template.Clone()
		body["name"] = names.DenormalizeResourceName(name)
		requests = append(requests, insertRequest(inv.Client, path, body))
	}
	return inv.ExecuteBatch(ctx, requests, compute.CollectionInstances), nil
}

// instanceTemplate builds the request body shared by every new instance.
func (a *app) instanceTemplate(inv *command.Invocation, zone, machineType, image, kernel string) (models.Resource, error) {
	flags := a.instance
	project := inv.Project()
	namer := inv.Namer

	disks := make([]interface{}, 0, len(flags.disks))
	for _, spec := range flags.disks {
		disk, err := parseDisk(spec)
		if err != nil {
			return nil, err
		}
		disk["source"] = namer.NormalizePerZoneResourceName(project, zone, compute.CollectionDisks, disk["source"].(string))
		disks = append(disks, disk)
	}

	iface := map[string]interface{}{
		"network": namer.NormalizeGlobalResourceName(project, collectionNetworks, flags.network),
	}
	switch flags.externalIP {
	case externalIPNone:
	case externalIPEphemeral, "":
		iface["accessConfigs"] = []interface{}{accessConfig("")}
	default:
		if net.ParseIP(flags.externalIP) == nil {
			return nil, command.Errorf("Invalid external IP address: %s", flags.externalIP)
		}
		iface["accessConfigs"] = []interface{}{accessConfig(flags.externalIP)}
	}

	metadata, err := parseMetadata(flags.metadata)
	if err != nil {
		return nil, err
	}

	body := models.Resource{
		"machineType":       namer.NormalizeTopLevelResourceName(project, compute.CollectionMachineTypes, machineType),
		"image":             namer.NormalizeGlobalResourceName(project, compute.CollectionImages, image),
		"disks":             disks,
		"networkInterfaces": []interface{}{iface},
		"zone":              namer.NormalizeTopLevelResourceName(project, compute.CollectionZones, zone),
	}
	if kernel != "" {
		body["kernel"] = namer.NormalizeGlobalResourceName(project, compute.CollectionKernels, kernel)
	}
	if flags.description != "" {
		body["description"] = flags.description
	}
	if len(flags.tags) > 0 {
		body["tags"] = map[string]interface{}{"items": stringsToInterfaces(flags.tags)}
	}
	if len(metadata) > 0 {
		body["metadata"] = map[string]interface{}{"items": metadata}
	}
	return body, nil
}

// parseDisk parses a --disk value of the form name[,deviceName[,mode]].
// The source is left unnormalized.
func parseDisk(spec string) (map[string]interface{}, error) {
	parts := strings.Split(spec, ",")
	if parts[0] == "" || len(parts) > 3 {
		return nil, command.Errorf("Invalid disk specification: %s", spec)
	}

	name := parts[0]
	deviceName := names.DenormalizeResourceName(name)
	if len(parts) > 1 && parts[1] != "" {
		deviceName = parts[1]
	}

	mode := diskModeReadWrite
	if len(parts) > 2 {
		switch strings.ToUpper(parts[2]) {
		case diskModeReadWrite, "RW":
		case diskModeReadOnly, "RO":
			mode = diskModeReadOnly
		default:
			return nil, command.Errorf("Invalid disk mode: %s", parts[2])
		}
	}

	return map[string]interface{}{
		"type":       "PERSISTENT",
		"mode":       mode,
		"deviceName": deviceName,
		"source":     name,
	}, nil
}

// parseMetadata turns key:value entries into metadata items.
func parseMetadata(entries []string) ([]interface{}, error) {
	items := make([]interface{}, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, ":")
		if !ok || key == "" {
			return nil, command.Errorf("Invalid metadata entry: %s (expected key:value)", entry)
		}
		if seen[key] {
			return nil, command.Errorf("Duplicate metadata key: %s", key)
		}
		seen[key] = true
		items = append(items, map[string]interface{}{"key": key, "value": value})
	}
	return items, nil
}

func accessConfig(natIP string) map[string]interface{} {
	cfg := map[string]interface{}{"name": "External NAT", "type": "ONE_TO_ONE_NAT"}
	if natIP != "" {
		cfg["natIP"] = natIP
	}
	return cfg
}

// isNamedAddress reports whether value is one of the non-static
// --external_ip_address choices.
func isNamedAddress(value string) bool {
	return value == externalIPEphemeral || value == externalIPNone || value == ""
}

func stringsToInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
